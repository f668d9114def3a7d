package compliance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rdti-cli/internal/activity"
	"github.com/sells-group/rdti-cli/internal/model"
	"github.com/sells-group/rdti-cli/internal/offset"
)

// cachedTotalTolerance is the largest acceptable drift between the cached
// expenditure total and the freshly summed amount.
const cachedTotalTolerance = 0.01

// Engine runs the compliance check battery. All dependencies are explicit.
type Engine struct {
	store Store
	data  DataSource

	// overviewConcurrency bounds how many lazy runs Overview performs in
	// parallel.
	overviewConcurrency int

	// now is swappable for deadline tests.
	now func() time.Time
}

// NewEngine builds an Engine over a check store and domain data source.
func NewEngine(store Store, data DataSource, overviewConcurrency int) *Engine {
	if overviewConcurrency <= 0 {
		overviewConcurrency = 4
	}
	return &Engine{
		store:               store,
		data:                data,
		overviewConcurrency: overviewConcurrency,
		now:                 time.Now,
	}
}

// Run evaluates all eight checks for an application, replaces the stored
// check set wholesale, and returns the summarised result. Missing
// application or client data is an explicit error; check evaluation itself
// is total over any valid application state.
func (e *Engine) Run(ctx context.Context, applicationID string) (*Summary, error) {
	app, err := e.data.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, eris.Wrapf(err, "compliance: load application %s", applicationID)
	}
	client, err := e.data.GetClient(ctx, app.ClientID)
	if err != nil {
		return nil, eris.Wrapf(err, "compliance: load client %s", app.ClientID)
	}
	expenditures, err := e.data.ListExpenditures(ctx, applicationID)
	if err != nil {
		return nil, eris.Wrapf(err, "compliance: load expenditures for %s", applicationID)
	}
	activities, err := e.data.ListActivities(ctx, app.ClientID)
	if err != nil {
		return nil, eris.Wrapf(err, "compliance: load activities for client %s", app.ClientID)
	}

	checkedAt := e.now()
	checks := []Check{
		e.checkEntityEligibility(client),
		e.checkRegistrationDeadline(app),
		e.checkExpenditureThreshold(app, expenditures),
		e.checkAssociatePayment(expenditures),
		e.checkOverseasFinding(activities),
		e.checkDocumentation(activities),
		e.checkActivityEligibility(activities),
		e.checkExpenditureConsistency(app, expenditures),
	}
	for i := range checks {
		checks[i].ApplicationID = applicationID
		checks[i].CheckedAt = checkedAt
	}

	// Full replace, not diffed: a failed persist must surface as a hard
	// error because a partial check set is worse than none.
	if err := e.store.ReplaceChecks(ctx, applicationID, checks); err != nil {
		return nil, eris.Wrapf(err, "compliance: persist checks for %s", applicationID)
	}

	summary := summarise(applicationID, checks)

	zap.L().Info("compliance: run complete",
		zap.String("application_id", applicationID),
		zap.Int("risk_score", summary.RiskScore),
		zap.String("risk_level", summary.RiskLevel),
	)
	return summary, nil
}

// summarise derives the risk score and level from a check set.
func summarise(applicationID string, checks []Check) *Summary {
	score := 0
	for _, c := range checks {
		switch c.Status {
		case StatusFail:
			score += failWeight
		case StatusWarning:
			score += warningWeight
		}
	}

	level := RiskLow
	switch {
	case score >= highRiskThreshold:
		level = RiskHigh
	case score >= mediumRiskThreshold:
		level = RiskMedium
	}

	return &Summary{
		ApplicationID: applicationID,
		Checks:        checks,
		RiskScore:     score,
		RiskLevel:     level,
	}
}

func (e *Engine) checkEntityEligibility(client *model.Client) Check {
	if client.IsExemptControlled {
		return Check{
			Type:    CheckEntityEligibility,
			Status:  StatusWarning,
			Message: "Client is controlled by an exempt entity; confirm R&D entity eligibility",
			Details: map[string]any{"client_id": client.ID},
		}
	}
	return Check{
		Type:    CheckEntityEligibility,
		Status:  StatusPass,
		Message: "Client meets R&D entity requirements",
	}
}

func (e *Engine) checkRegistrationDeadline(app *model.Application) Check {
	deadline := offset.RegistrationDeadline(app.IncomeYearEnd)
	registered := app.Status == model.StatusRegistered || app.Status == model.StatusLodged

	if deadline.Before(e.now()) && !registered {
		return Check{
			Type:    CheckRegistrationDeadline,
			Status:  StatusFail,
			Message: fmt.Sprintf("Registration deadline %s has passed without registration", deadline.Format("2 January 2006")),
			Details: map[string]any{"deadline": deadline.Format(time.RFC3339)},
		}
	}
	return Check{
		Type:    CheckRegistrationDeadline,
		Status:  StatusPass,
		Message: fmt.Sprintf("Registration deadline is %s", deadline.Format("2 January 2006")),
		Details: map[string]any{"deadline": deadline.Format(time.RFC3339)},
	}
}

func (e *Engine) checkExpenditureThreshold(app *model.Application, expenditures []model.Expenditure) Check {
	var rsp, crc float64
	for _, exp := range expenditures {
		switch exp.Category {
		case model.CategoryRSP:
			rsp += exp.Amount
		case model.CategoryCRCContribution:
			crc += exp.Amount
		}
	}

	eligibility := offset.MeetsMinimumThreshold(app.NotionalDeductions, rsp, crc)
	status := StatusPass
	if !eligibility.Eligible {
		status = StatusFail
	}
	return Check{
		Type:    CheckExpenditureThreshold,
		Status:  status,
		Message: eligibility.Message,
		Details: map[string]any{
			"notional_deductions": app.NotionalDeductions,
			"rsp_amount":          rsp,
			"crc_amount":          crc,
		},
	}
}

func (e *Engine) checkAssociatePayment(expenditures []model.Expenditure) Check {
	var unpaid []string
	for _, exp := range expenditures {
		if exp.Category == model.CategoryAssociatePaid && !exp.IsPaid {
			unpaid = append(unpaid, exp.ID)
		}
	}

	if len(unpaid) > 0 {
		return Check{
			Type:    CheckAssociatePayment,
			Status:  StatusFail,
			Message: fmt.Sprintf("%d associate expenditure(s) are unpaid; associate amounts are only claimable when paid", len(unpaid)),
			Details: map[string]any{"unpaid_expenditure_ids": unpaid},
		}
	}
	return Check{
		Type:    CheckAssociatePayment,
		Status:  StatusPass,
		Message: "All associate expenditures are paid",
	}
}

func (e *Engine) checkOverseasFinding(activities []model.Activity) Check {
	var missing []string
	for _, act := range activities {
		if act.IsOverseas && act.OverseasFindingID == "" {
			missing = append(missing, act.ID)
		}
	}

	if len(missing) > 0 {
		return Check{
			Type:    CheckOverseasFinding,
			Status:  StatusWarning,
			Message: fmt.Sprintf("%d overseas activity(ies) have no overseas finding", len(missing)),
			Details: map[string]any{"activity_ids": missing},
		}
	}
	return Check{
		Type:    CheckOverseasFinding,
		Status:  StatusPass,
		Message: "All overseas activities have findings in place",
	}
}

func (e *Engine) checkDocumentation(activities []model.Activity) Check {
	incomplete := map[string][]string{}
	for _, act := range activities {
		if findings := activity.ValidateHEC(act.HEC); len(findings) > 0 {
			incomplete[act.ID] = findings
		}
	}

	if len(incomplete) > 0 {
		return Check{
			Type:    CheckDocumentation,
			Status:  StatusWarning,
			Message: fmt.Sprintf("%d activity(ies) have incomplete H-E-C documentation", len(incomplete)),
			Details: map[string]any{"findings": incomplete},
		}
	}
	return Check{
		Type:    CheckDocumentation,
		Status:  StatusPass,
		Message: "All activities have complete H-E-C documentation",
	}
}

func (e *Engine) checkActivityEligibility(activities []model.Activity) Check {
	if len(activities) == 0 {
		return Check{
			Type:    CheckActivityEligibility,
			Status:  StatusFail,
			Message: "No R&D activities registered",
		}
	}

	core := 0
	var unlinked []string
	for _, act := range activities {
		switch act.Kind {
		case model.ActivityCore:
			core++
		case model.ActivitySupporting:
			if act.CoreActivityID == "" {
				unlinked = append(unlinked, act.ID)
			}
		}
	}

	if core == 0 {
		return Check{
			Type:    CheckActivityEligibility,
			Status:  StatusFail,
			Message: "No core R&D activities registered; at least one core activity is required",
		}
	}
	if len(unlinked) > 0 {
		return Check{
			Type:    CheckActivityEligibility,
			Status:  StatusWarning,
			Message: fmt.Sprintf("%d supporting activity(ies) are not linked to a core activity", len(unlinked)),
			Details: map[string]any{"activity_ids": unlinked},
		}
	}
	return Check{
		Type:    CheckActivityEligibility,
		Status:  StatusPass,
		Message: "Activity register meets core/supporting requirements",
	}
}

func (e *Engine) checkExpenditureConsistency(app *model.Application, expenditures []model.Expenditure) Check {
	var total float64
	var negativeGST, unlinked []string
	for _, exp := range expenditures {
		total += exp.Amount
		if exp.GSTAmount < 0 {
			negativeGST = append(negativeGST, exp.ID)
		}
		if exp.ProjectID == "" {
			unlinked = append(unlinked, exp.ID)
		}
	}

	if len(negativeGST) > 0 {
		return Check{
			Type:    CheckExpenditureConsistency,
			Status:  StatusFail,
			Message: fmt.Sprintf("%d expenditure(s) have negative GST amounts", len(negativeGST)),
			Details: map[string]any{"expenditure_ids": negativeGST},
		}
	}

	drift := math.Abs(app.CachedExpenditureTotal - total)
	if len(unlinked) > 0 || drift > cachedTotalTolerance {
		details := map[string]any{
			"cached_total": app.CachedExpenditureTotal,
			"summed_total": total,
		}
		msg := "Expenditure records are inconsistent"
		if len(unlinked) > 0 {
			details["unlinked_expenditure_ids"] = unlinked
			msg = fmt.Sprintf("%d expenditure(s) are not linked to a project", len(unlinked))
		} else {
			msg = fmt.Sprintf("Cached expenditure total differs from summed total by %.2f", drift)
		}
		return Check{
			Type:    CheckExpenditureConsistency,
			Status:  StatusWarning,
			Message: msg,
			Details: details,
		}
	}

	return Check{
		Type:    CheckExpenditureConsistency,
		Status:  StatusPass,
		Message: "Expenditure records are consistent",
	}
}
