package management

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lead_automation_backend/internal/leads/domain"
	"lead_automation_backend/internal/leads/repository"
	"lead_automation_backend/internal/leads/transport"
	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/logger"
	"lead_automation_backend/platform/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intakeConfig struct{ policy string }

func (c intakeConfig) GetLeadDuplicatePolicy() string { return c.policy }
func (c intakeConfig) GetPhoneDefaultRegion() string  { return "US" }

func newTestService(policy string) *Service {
	return New(repository.NewStore(logger.Discard()), validator.New(), nil, intakeConfig{policy: policy}, logger.Discard())
}

func TestAddNormalizesAndValidates(t *testing.T) {
	svc := newTestService("upsert")
	ctx := context.Background()

	resp, err := svc.Add(ctx, transport.CreateLeadRequest{
		Name:    "  <b>Ann</b>  Lee ",
		Email:   " Ann@Example.com ",
		Company: "Acme",
		UseCase: "invoice <i>processing</i>",
		Budget:  7000,
		Phone:   "(201) 555-0123",
	})
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, "ann@example.com", resp.Lead.ID)
	assert.Equal(t, "Ann Lee", resp.Lead.Name)
	assert.Equal(t, "invoice processing", resp.Lead.UseCase)
	assert.Equal(t, "+12015550123", resp.Lead.Phone)
	assert.Equal(t, string(domain.StatusNew), resp.Lead.Status)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	svc := newTestService("upsert")
	ctx := context.Background()

	for name, req := range map[string]transport.CreateLeadRequest{
		"missing name":    {Email: "a@example.com", Budget: 1},
		"invalid email":   {Name: "A", Email: "nope", Budget: 1},
		"negative budget": {Name: "A", Email: "a@example.com", Budget: -5},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Add(ctx, req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Equal(t, apperr.KindValidation, apperr.GetKind(err))
		})
	}

	list, _ := svc.List(ctx)
	assert.Zero(t, list.Total)
}

const goodHeader = "Name, Email, Company, UseCase, Budget, Phone\n"

func TestImportCSVReportsRowErrorsWithoutAborting(t *testing.T) {
	svc := newTestService("upsert")
	ctx := context.Background()

	csvData := goodHeader +
		"Ann,ann@example.com,Acme,invoicing,7000,\n" +
		"Bob,,Globex,support,3000,\n" +
		"Cy,cy@example.com,Initech,reports,abc,\n" +
		"Di,di@example.com,Umbrella,ops,-10,\n" +
		"Ed,ed@example.com,Hooli,search\n" +
		"Flo,flo@example.com,Vandelay,imports,12000,+31 10 123 4567\n"

	res, err := svc.ImportCSV(ctx, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	require.Len(t, res.Rejected, 4)

	rows := []int{res.Rejected[0].Row, res.Rejected[1].Row, res.Rejected[2].Row, res.Rejected[3].Row}
	assert.Equal(t, []int{2, 3, 4, 5}, rows)
	assert.Equal(t, 3, res.Rejected[0].Line)
	assert.Contains(t, res.Rejected[1].Reason, "not a number")
	assert.Contains(t, res.Rejected[2].Reason, "negative")
	assert.Contains(t, res.Rejected[3].Reason, "columns")

	list, _ := svc.List(ctx)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "ann@example.com", list.Items[0].ID)
	assert.Equal(t, "+31101234567", list.Items[1].Phone)
}

func TestImportCSVHeaderIsCaseInsensitiveButStrict(t *testing.T) {
	svc := newTestService("upsert")
	ctx := context.Background()

	res, err := svc.ImportCSV(ctx, strings.NewReader("name,EMAIL,company,usecase,budget,phone\nA,a@example.com,,,1,\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)

	_, err = svc.ImportCSV(ctx, strings.NewReader("Name,Email,Company,AutomationNeed,Budget,Phone\n"))
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = svc.ImportCSV(ctx, strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestImportCSVDuplicatePolicies(t *testing.T) {
	ctx := context.Background()
	data := goodHeader + "Ann,ann@example.com,Acme,a,1000,\nAnn B,ANN@example.com,Acme,b,2000,\n"

	upsert := newTestService("upsert")
	res, err := upsert.ImportCSV(ctx, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 1, res.Updated)
	lead, _ := upsert.Get(ctx, "ann@example.com")
	assert.Equal(t, 2000.0, lead.Budget)

	reject := newTestService("reject")
	res, err = reject.ImportCSV(ctx, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "duplicate lead", res.Rejected[0].Reason)
	assert.Equal(t, 2, res.Rejected[0].Row)
}

func TestGetUnknownLead(t *testing.T) {
	_, err := newTestService("upsert").Get(context.Background(), "ghost@example.com")
	assert.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
}
