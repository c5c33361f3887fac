package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/provider/bank"
	"fleet-backoffice/internal/reconcile"
	"fleet-backoffice/internal/repository"
)

// AutomatedOperator is the operator label of scheduled runs
const AutomatedOperator = "automated-worker"

// StatementExporter produces the bank's statement files
type StatementExporter interface {
	ExportStatement(ctx context.Context, from, to time.Time, format bank.ExportFormat) (string, error)
}

// ReceiptSource rolls up the payments received in a range, per customer
type ReceiptSource interface {
	Receipts(ctx context.Context, from, to time.Time) ([]reconcile.CustomerRollup, error)
}

type exportService struct {
	exports    repository.ExportRepository
	statements StatementExporter
	receipts   ReceiptSource
	mailer     EmailService
	settings   Settings
	now        func() time.Time
}

func NewExportService(exports repository.ExportRepository, statements StatementExporter, receipts ReceiptSource, mailer EmailService, settings Settings) ExportService {
	return &exportService{
		exports:    exports,
		statements: statements,
		receipts:   receipts,
		mailer:     mailer,
		settings:   settings,
		now:        time.Now,
	}
}

func (s *exportService) RunMonthly(ctx context.Context, month domain.Month, operator string) (result ExportResult) {
	result = ExportResult{Month: month}
	if operator == "" {
		operator = AutomatedOperator
	}
	log := logger.Get().With("month", month.String(), "operator", operator)

	done, err := s.exports.HasSucceeded(ctx, month)
	if err != nil {
		log.ErrorContext(ctx, "Export gate check failed", "error", err)
		result.Status = ExportStatusFailed
		result.Message = fmt.Sprintf("could not check export history: %v", err)
		return result
	}
	if done {
		log.InfoContext(ctx, "Export already sent, skipping")
		result.Status = ExportStatusSkipped
		result.Message = fmt.Sprintf("export for %s already sent", month)
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "Export panicked", "panic", r)
			result = s.finish(ctx, month, operator, fmt.Errorf("export panicked: %v", r))
		}
	}()

	return s.finish(ctx, month, operator, s.attempt(ctx, month))
}

func (s *exportService) attempt(ctx context.Context, month domain.Month) error {
	to := strings.TrimSpace(s.settings.Get(config.KeyAccountantEmail))
	if to == "" {
		return fmt.Errorf("accountant email (%s) is not configured", config.KeyAccountantEmail)
	}

	from, until := month.FirstDay(), month.LastDay()
	attachments := make([]Attachment, 0, 3)
	for _, f := range []struct {
		format      bank.ExportFormat
		ext         string
		contentType string
	}{
		{bank.FormatPDF, "pdf", "application/pdf"},
		{bank.FormatOFX, "ofx", "application/x-ofx"},
	} {
		encoded, err := s.statements.ExportStatement(ctx, from, until, f.format)
		if err != nil {
			return fmt.Errorf("failed to export bank statement (%s): %w", f.format, err)
		}
		att, err := DecodeBlob(fmt.Sprintf("extrato_inter_%s.%s", month, f.ext), f.contentType, encoded)
		if err != nil {
			return err
		}
		attachments = append(attachments, att)
	}

	if s.receipts != nil {
		if csvAtt, err := s.receiptsCSV(ctx, month); err != nil {
			logger.WarnContext(ctx, "Receipts CSV not attached", "month", month.String(), "error", err)
		} else {
			attachments = append(attachments, csvAtt)
		}
	}

	res, err := s.mailer.SendAccountantExport(ctx, to, month, attachments)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Accountant export delivered", "month", month.String(), "simulated", res.Simulated, "message", res.Message)
	return nil
}

func (s *exportService) receiptsCSV(ctx context.Context, month domain.Month) (Attachment, error) {
	rollups, err := s.receipts.Receipts(ctx, month.FirstDay(), month.LastDay())
	if err != nil {
		return Attachment{}, err
	}
	data, err := WriteReceiptsCSV(rollups)
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{
		Filename:    fmt.Sprintf("clientes_recebimentos_%s.csv", month),
		ContentType: "text/csv",
		Data:        data,
	}, nil
}

// WriteReceiptsCSV lists settled receipts per customer
func WriteReceiptsCSV(rollups []reconcile.CustomerRollup) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"cpf_cnpj", "nome", "valor_recebido", "quantidade_pagamentos"}); err != nil {
		return nil, err
	}
	for _, r := range rollups {
		if err := w.Write([]string{r.TaxID, r.Name, r.Settled.StringFixed(2), strconv.Itoa(r.SettledCount)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// finish records the outcome of an attempt, success or failure
func (s *exportService) finish(ctx context.Context, month domain.Month, operator string, attemptErr error) ExportResult {
	result := ExportResult{Month: month}
	rec := &domain.ExportRecord{
		ReferenceMonth: month,
		SentAt:         s.now(),
		Outcome:        domain.ExportSucceeded,
		Operator:       operator,
	}
	if attemptErr != nil {
		rec.Outcome = domain.ExportFailed
		rec.Message = attemptErr.Error()
	}

	recorded, err := s.exports.Record(ctx, rec)
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "Failed to record export outcome", "month", month.String(), "outcome", rec.Outcome, "error", err)
	case recorded:
		result.Record = rec
	}

	if attemptErr != nil {
		logger.ErrorContext(ctx, "Accountant export failed", "month", month.String(), "operator", operator, "error", attemptErr)
		result.Status = ExportStatusFailed
		result.Message = attemptErr.Error()
		return result
	}

	result.Status = ExportStatusSucceeded
	result.Message = fmt.Sprintf("export for %s sent", month)
	if err == nil && !recorded {
		result.Message += "; a concurrent run had already recorded it"
	}
	return result
}

func (s *exportService) History(ctx context.Context, limit int) ([]domain.ExportRecord, error) {
	return s.exports.List(ctx, limit)
}
