// compliance/scoring.go
// 可靠性评分与设备利用率分类，全部纯函数。
package compliance

import (
	"math"
	"time"

	"equiploan/models"
)

const (
	scoreWeightOnTime = 0.6
	scoreWeightNoShow = 0.4

	tierExcellentMin = 90
	tierGoodMin      = 70
	tierFairMin      = 50

	highDemandRate = 0.8
	idleAfter      = 60 * 24 * time.Hour
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ReliabilityScore 按时归还率与爽约率的加权混合，结果夹在 [0,100]
func ReliabilityScore(onTimeReturnRate, noShowRate float64) int {
	onTimeReturnRate = clamp01(onTimeReturnRate)
	noShowRate = clamp01(noShowRate)
	score := int(math.Round(100 * (onTimeReturnRate*scoreWeightOnTime + (1-noShowRate)*scoreWeightNoShow)))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func ClassifyReliability(score int) string {
	switch {
	case score >= tierExcellentMin:
		return models.TierExcellent
	case score >= tierGoodMin:
		return models.TierGood
	case score >= tierFairMin:
		return models.TierFair
	default:
		return models.TierPoor
	}
}

// IsFlagged 低于 fair 线的用户打标
func IsFlagged(score int) bool { return score < tierFairMin }

// UtilizationRate 借用天数占分析窗口的比例，窗口非法时记 0
func UtilizationRate(borrowedDays, totalDays float64) float64 {
	if totalDays <= 0 {
		return 0
	}
	return clamp01(borrowedDays / totalDays)
}

// ClassifyUtilization 利用率 ≥ 0.8 为高需求；从未借出或超过 60 天
// 没动过算闲置；其余正常。
func ClassifyUtilization(rate float64, lastBorrowedAt *time.Time, now time.Time) string {
	if rate >= highDemandRate {
		return models.UtilizationHighDemand
	}
	if lastBorrowedAt == nil || now.Sub(*lastBorrowedAt) >= idleAfter {
		return models.UtilizationIdle
	}
	return models.UtilizationNormal
}
