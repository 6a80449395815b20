package scoring

import (
	"math"

	"github.com/roiscope/roiscope/pkg/model"
)

// ROIEstimate holds the cost and savings projection of one step.
type ROIEstimate struct {
	StepID             string
	MonthlyVolume      float64
	AHTHours           float64
	MonthlyManualCost  float64
	BaseShiftRate      float64
	EffectiveShiftRate float64
	MonthlySavings     float64
	AnnualSavings      float64
	ImplementationCost float64
	PaybackMonths      Months // +Inf when there are no savings
	ROIRatio           float64
	FallbackShiftRate  bool
}

// EstimateROI projects manual cost, automation savings, implementation cost,
// payback and ROI ratio for one step under a scenario's business parameters.
func EstimateROI(step model.ProcessStep, biz model.BusinessParams, rates ShiftRates) ROIEstimate {
	est := ROIEstimate{StepID: step.ID}

	est.MonthlyVolume = biz.TicketVolumeMonthly * step.VolumeShare * biz.PeakMultiplier
	est.AHTHours = step.AvgHandleTimeMin / 60.0
	est.MonthlyManualCost = est.MonthlyVolume * est.AHTHours * biz.AgentCostPerHour * biz.OverheadMultiplier

	est.BaseShiftRate, est.FallbackShiftRate = rates.Rate(step.AutomationCandidate)
	est.EffectiveShiftRate = clip(est.BaseShiftRate*biz.AutomationAdoptionRate, 0, 1)

	est.MonthlySavings = est.MonthlyManualCost * est.EffectiveShiftRate
	est.AnnualSavings = est.MonthlySavings * 12.0

	// Implementation complexity grows with the share of work automated.
	est.ImplementationCost = biz.BaseImplementationCost * (0.5 + 0.8*est.EffectiveShiftRate)

	if est.MonthlySavings > 0 {
		est.PaybackMonths = Months(est.ImplementationCost / est.MonthlySavings)
	} else {
		est.PaybackMonths = Months(math.Inf(1))
	}

	if est.ImplementationCost > 0 {
		est.ROIRatio = est.AnnualSavings / est.ImplementationCost
	}

	return est
}

// EstimateAll runs EstimateROI for every step, keyed by step id.
func EstimateAll(steps []model.ProcessStep, biz model.BusinessParams, rates ShiftRates) map[string]ROIEstimate {
	out := make(map[string]ROIEstimate, len(steps))
	for _, s := range steps {
		out[s.ID] = EstimateROI(s, biz, rates)
	}
	return out
}

// ROIScore maps payback and ROI ratio to a bounded 0–100 score against the
// scenario targets. A payback of zero scores 0.
func ROIScore(payback Months, roiRatio, targetPaybackMonths, targetROIRatio float64) float64 {
	var paybackScore float64
	if payback != 0 {
		paybackScore = 100.0 * clip(targetPaybackMonths/float64(payback), 0, 1)
	}
	roiRatioScore := 100.0 * clip(roiRatio/targetROIRatio, 0, 1)
	return PaybackBlend*paybackScore + ROIRatioBlend*roiRatioScore
}
