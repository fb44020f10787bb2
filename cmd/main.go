package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"ai-interview-voice-core/internal/app"
	"ai-interview-voice-core/internal/config"
	"ai-interview-voice-core/internal/interview"
	"ai-interview-voice-core/internal/session"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg := config.Load()

	done := make(chan struct{})
	observer := interview.Observer{
		OnState: func(from, to interview.State) {
			log.Info().Str("from", from.String()).Str("to", to.String()).Msg("Interview state")
		},
		OnQuestion: func(number, total int, text string) {
			log.Info().Int("number", number).Int("total", total).Str("question", text).Msg("Question")
		},
		OnTranscript: func(text string, final bool) {
			log.Info().Bool("final", final).Str("transcript", text).Msg("Transcript")
		},
		OnEvaluation: func(questionNumber int, scores map[string]float64) {
			log.Info().Int("question", questionNumber).Fields(map[string]interface{}{"scores": scores}).Msg("Evaluation")
		},
		OnCompleted: func(result session.Result) {
			log.Info().
				Str("verdict", result.Verdict).
				Str("report_url", result.ReportURL).
				Msg("Interview complete")
			close(done)
		},
		OnError: func(code, message string) {
			log.Warn().Str("code", code).Str("message", message).Msg("Interview error")
		},
	}

	a, err := app.New(cfg, app.Options{Observer: observer})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		log.Info().Msg("Signal received, shutting down")
	case <-done:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	a.Shutdown(shutdownCtx)
}
