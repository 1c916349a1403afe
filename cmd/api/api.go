package api

import (
	"loanledger/src/database"
	"loanledger/src/server"

	"github.com/sirupsen/logrus"
)

type API struct{}

func (a *API) Start() error {
	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	config := server.GetConfig()
	server.StartServer(config.Port)

	return nil
}
