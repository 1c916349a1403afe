package sweep

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"loanledger/src/database"
	"loanledger/src/sweeper"
)

type Sweep struct{}

func (s *Sweep) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	sw := sweeper.New(database.MainDB, nil)
	if err := sw.StartLoop(ctx); err != nil {
		logrus.WithError(err).Error("Lateness sweeper exited with error")
		return err
	}

	return nil
}
