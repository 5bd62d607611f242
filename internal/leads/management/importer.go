package management

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"lead_automation_backend/internal/events"
	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/internal/leads/transport"
	"lead_automation_backend/platform/apperr"
)

// csvHeader is the required column order of an import file.
var csvHeader = []string{"Name", "Email", "Company", "UseCase", "Budget", "Phone"}

// ImportCSV adds every valid row of r. Invalid rows are reported and never
// abort the batch; a wrong header rejects the whole file.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (transport.ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return transport.ImportResult{}, validationError("csv file is empty", nil)
	}
	if err != nil {
		return transport.ImportResult{}, validationError("csv header is unreadable: "+err.Error(), nil)
	}
	if !headerMatches(header) {
		return transport.ImportResult{}, validationError(
			"csv header must be: "+strings.Join(csvHeader, ", "),
			map[string]interface{}{"got": header},
		)
	}

	result := transport.ImportResult{Rejected: []transport.RowError{}}
	row := 0
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			result.Rejected = append(result.Rejected, transport.RowError{
				Row:    row,
				Line:   parseErr.StartLine,
				Reason: "malformed csv: " + parseErr.Err.Error(),
			})
			continue
		}
		if err != nil {
			return result, apperr.Wrap(apperr.KindBadRequest, "failed to read csv", err)
		}

		line, _ := reader.FieldPos(0)
		lead, created, rowErr := s.importRow(ctx, record)
		if rowErr != nil {
			result.Rejected = append(result.Rejected, transport.RowError{
				Row:    row,
				Line:   line,
				Email:  cell(record, 1),
				Reason: rowReason(rowErr),
			})
			continue
		}
		result.Added++
		if !created {
			result.Updated++
		}
		s.log.Debug("lead imported", "leadId", lead.ID, "row", row, "created", created)
	}

	s.publish(ctx, events.LeadsImported{
		BaseEvent: events.NewBaseEvent(),
		Imported:  result.Added,
		Updated:   result.Updated,
		Rejected:  len(result.Rejected),
	})
	return result, nil
}

func (s *Service) importRow(ctx context.Context, record []string) (repository.Lead, bool, error) {
	if len(record) != len(csvHeader) {
		return repository.Lead{}, false, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(record))
	}
	budget, err := parseBudget(record[4])
	if err != nil {
		return repository.Lead{}, false, err
	}
	return s.add(ctx, transport.CreateLeadRequest{
		Name:    record[0],
		Email:   record[1],
		Company: record[2],
		UseCase: record[3],
		Budget:  budget,
		Phone:   record[5],
	})
}

func parseBudget(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("budget is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("budget %q is not a number", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("budget %q is not finite", raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("budget %q is negative", raw)
	}
	return v, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(csvHeader) {
		return false
	}
	for i, want := range csvHeader {
		got := strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
		if !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}

func rowReason(err error) string {
	if errors.Is(err, repository.ErrDuplicateLead) {
		return "duplicate lead"
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func cell(record []string, i int) string {
	if i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
