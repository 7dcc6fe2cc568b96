package app

import (
	"context"
	"log"
	"time"

	"planetfall/internal/ai"
	"planetfall/internal/game"
	"planetfall/internal/net/client"
	"planetfall/internal/telemetry"
)

// autoPlanEvery spaces autoplay planning so a healthy garrison is not
// drained in a burst of single-ticket orders.
const autoPlanEvery = 30

// consolePresenter prints status transitions to the standard logger.
type consolePresenter struct {
	logger telemetry.Logger
}

func (p consolePresenter) Status(text string) { p.logger.Printf("status: %s", text) }
func (p consolePresenter) ResetView()         {}

// RunClient joins the configured server and runs the session tick loop
// until ctx is cancelled. With autoplay enabled the client plays its
// assigned faction through the same order path a player would use.
func RunClient(ctx context.Context) error {
	cfg, err := LoadClientConfig()
	if err != nil {
		return err
	}

	router, logCloser, err := newRouter("", cfg.LogDebug)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			log.Printf("failed to close logging router: %v", cerr)
		}
		if logCloser != nil {
			logCloser.Close()
		}
	}()

	logger := telemetry.WrapLogger(log.Default())
	session := client.New(client.Config{
		Timeout:   cfg.PeerTimeout,
		Logger:    logger,
		Publisher: router,
		Presenter: consolePresenter{logger: logger},
	})
	session.Join(cfg.Server)

	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = 15
	}
	dt := 1.0 / float64(tickRate)
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	policy := ai.ReinforceOrRaid{}
	var tick uint64
	for {
		select {
		case <-ctx.Done():
			session.Disconnect()
			return nil
		case now := <-ticker.C:
			tick++
			session.Tick(now, dt)
			if cfg.AutoPlay && tick%autoPlanEvery == 0 {
				autoplay(session, policy, logger)
			}
		}
	}
}

// autoplay feeds policy intents through the ordinary order path.
func autoplay(session *client.Session, policy ai.Policy, logger telemetry.Logger) {
	if session.Phase() != client.PhaseSynced || session.FactionID() == game.NoFaction {
		return
	}
	for _, intent := range policy.Plan(session.State(), session.FactionID()) {
		if err := session.SendMoveOrder(intent.Destination, []int{intent.Origin}, 1); err != nil {
			logger.Printf("autoplay order dropped: %v", err)
		}
	}
}
