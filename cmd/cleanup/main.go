// Expired-row sweeper, intended for a cron schedule. Verification codes and
// refresh tokens expire lazily on the request path; this job keeps the
// tables from accumulating rows nobody will ever look up again.
package main

import (
	"context"
	"os"
	"time"

	"edufolio/config"
	"edufolio/internal/repository"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	db, err := config.ConnectDB()
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tokens, err := repository.NewRefreshTokenRepository(db).DeleteExpired(ctx)
	if err != nil {
		logger.WithError(err).Fatal("refresh token cleanup failed")
	}
	codes, err := repository.NewEmailVerificationRepository(db).DeleteExpired(ctx)
	if err != nil {
		logger.WithError(err).Fatal("verification code cleanup failed")
	}

	logger.WithFields(logrus.Fields{
		"refresh_tokens": tokens,
		"codes":          codes,
	}).Info("cleanup finished")
}
