package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/tytos-ai/analyser/cmd/analyser/startup"
	"github.com/tytos-ai/analyser/pkg/utils/config"
)

func main() {
	// Initialiser la configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Échec du chargement de la configuration: %v", err)
	}

	// Initialiser le logger
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		l.SetLevel(level)
	}
	l.Info("Wallet P&L Analyser démarré")

	// Démarrer les composants du système
	app, err := startup.InitializeApplication(cfg, l)
	if err != nil {
		l.WithError(err).Fatal("Échec de l'initialisation de l'application")
	}

	if err := app.Start(); err != nil {
		l.WithError(err).Fatal("Échec du démarrage de l'application")
	}

	// Attendre l'arrêt gracieux
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	l.Info(fmt.Sprintf("Signal d'arrêt reçu: %s", sig.String()))

	if err := app.Stop(); err != nil {
		l.WithError(err).Error("Problèmes lors de l'arrêt de l'application")
		os.Exit(1)
	}

	l.Info("Application arrêtée avec succès")
}
