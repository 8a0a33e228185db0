package di

import (
	"errors"
	"io"

	"CanSlim/internal/usecase"
	"CanSlim/pkg/config"
	applogger "CanSlim/pkg/logger"
)

// Screener is the screening use case together with the clients it owns, for
// one-shot runs outside the server.
type Screener struct {
	*usecase.ScreeningUseCase
	l       *applogger.Logger
	closers []io.Closer
}

// Close flushes the log collector and closes the owned clients in reverse
// order of creation.
func (s *Screener) Close() error {
	s.l.RemoveCollector()
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InitializeScreener builds the use case from the same providers as
// InitializeApp, without the HTTP server, consumer and scheduler.
func InitializeScreener(cfg *config.Config) (*Screener, error) {
	s := &Screener{l: applogger.Nop()}
	fail := func(err error) (*Screener, error) {
		_ = s.Close()
		return nil, err
	}

	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return fail(err)
	}
	l, err := ProvideLogger(cfg, producer)
	if err != nil {
		if producer != nil {
			_ = producer.Close()
		}
		return fail(err)
	}
	s.l = l
	publisher := ProvidePublisher(producer, cfg)
	s.closers = append(s.closers, publisher)

	client, err := ProvideClickHouseClient(cfg, l)
	if err != nil {
		return fail(err)
	}
	s.closers = append(s.closers, client)

	c, err := ProvideCache(cfg, l)
	if err != nil {
		return fail(err)
	}
	if closer, ok := c.(io.Closer); ok {
		s.closers = append(s.closers, closer)
	}

	store, err := ProvideSignalStore(client, cfg, l)
	if err != nil {
		return fail(err)
	}
	s.ScreeningUseCase = ProvideScreeningUseCase(
		ProvideCalculator(cfg, l),
		ProvideMarketStore(client, cfg, l),
		store,
		publisher,
		c,
		ProvideMetrics(),
		l,
		cfg,
	)
	return s, nil
}
