package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/contactimport/internal/logging"
	"github.com/google/uuid"
)

// ServiceOptions tunes how Import runs are admitted.
type ServiceOptions struct {
	MaxConcurrent int           // simultaneous imports; see ImportLimiter
	MaxWait       time.Duration // how long Import waits for a slot
	Timeout       time.Duration // per-import deadline applied by Import; 0 disables
}

// Service runs contact imports against a contact store.
type Service struct {
	contacts  ContactStore
	countries CountryDirectory
	decoder   *Decoder
	limiter   *ImportLimiter
	timeout   time.Duration
}

// NewService creates a Service. countries may be nil, in which case country
// names never resolve.
func NewService(contacts ContactStore, countries CountryDirectory, opts ServiceOptions) *Service {
	return &Service{
		contacts:  contacts,
		countries: countries,
		decoder:   NewDecoder(),
		limiter:   NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		timeout:   opts.Timeout,
	}
}

// Import admits the run through the concurrency limiter, applies the
// configured timeout and then calls ProcessFile.
//
// When the deadline passes or ctx is cancelled mid-run, the rows reached
// afterwards fail and Import returns the partial report together with an
// error wrapping ctx.Err(). Rows written before that point stay written.
func (s *Service) Import(ctx context.Context, data []byte, fileName string, mode ImportMode) (*ImportReport, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.ProcessFile(ctx, data, fileName, mode)
	if err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return report, fmt.Errorf("import %s did not finish: %w", report.ID, ctxErr)
	}
	return report, nil
}

// ProcessFile decodes data and imports every row under mode.
//
// Errors returned are fatal to the whole run (see IsFatal); no row has been
// processed when one is returned. Row-level problems never produce an error:
// they are collected in the report's Messages.
func (s *Service) ProcessFile(ctx context.Context, data []byte, fileName string, mode ImportMode) (*ImportReport, error) {
	start := time.Now()
	importID := uuid.New().String()
	logger := logging.WithFields(ctx, "import_id", importID, "file", fileName)

	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: please upload a file", ErrNoFile)
	}

	decoded, err := s.decoder.Decode(data, fileName)
	if err != nil {
		logger.Warn("import rejected", "mode", mode, "error", err)
		return nil, err
	}

	logger.Info("import started",
		"mode", mode,
		"format", decoded.Format,
		"encoding", decoded.Encoding,
		"rows", len(decoded.Rows),
	)

	resolver := NewResolver(s.contacts, s.countries, mode)
	agg := NewAggregator()

	for _, row := range decoded.Rows {
		if isBlankRow(row.Values) {
			continue
		}
		outcome := s.processRow(ctx, resolver, row)
		agg.Add(outcome)
		logger.Debug("row processed", "line", row.Line, "outcome", outcome.Kind)
	}

	report := agg.Report()
	report.ID = importID
	report.FileName = fileName
	report.Mode = mode
	report.Format = decoded.Format
	report.Encoding = decoded.Encoding
	report.Duration = time.Since(start)

	logger.Info("import finished",
		"created", report.Created,
		"updated", report.Updated,
		"errors", len(report.Messages),
		"duration_ms", report.Duration.Milliseconds(),
		"result", report.LogText(),
	)

	return report, nil
}

// processRow runs one row through normalization, validation and resolution.
func (s *Service) processRow(ctx context.Context, resolver *Resolver, row Row) RowOutcome {
	contact := Normalize(row.Values)
	if err := ValidateContact(contact, row.Line); err != nil {
		return RowOutcome{Kind: OutcomeFailed, Line: row.Line, Message: err.Error()}
	}
	return resolver.Resolve(ctx, contact, row.Line)
}

// LimiterStatus returns the current import slot occupancy.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
