package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Unique returns a per-process unique string with the given prefix.
func Unique(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, seq.Add(1))
}

func SeedOutcomeSet(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.OutcomeSet {
	tb.Helper()
	now := time.Now().Unix()
	s := &types.OutcomeSet{
		IDNumber:     Unique("set"),
		Name:         "set",
		TimeCreated:  now,
		TimeModified: now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed outcome set: %v", err)
	}
	return s
}

// SeedOutcome inserts an assessable outcome with optional facet values.
func SeedOutcome(tb testing.TB, ctx context.Context, tx *gorm.DB, setID uint, parentID *uint, sortorder int, edulevels, subjects []string) *types.Outcome {
	tb.Helper()
	now := time.Now().Unix()
	o := &types.Outcome{
		OutcomeSetID: setID,
		ParentID:     parentID,
		IDNumber:     Unique("outcome"),
		Description:  "outcome",
		Assessable:   true,
		SortOrder:    sortorder,
		TimeCreated:  now,
		TimeModified: now,
		Edulevels:    edulevels,
		Subjects:     subjects,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed outcome: %v", err)
	}
	var md []*types.OutcomeMetadata
	for _, v := range edulevels {
		md = append(md, &types.OutcomeMetadata{OutcomeID: o.ID, Name: types.MetadataEdulevels, Value: v})
	}
	for _, v := range subjects {
		md = append(md, &types.OutcomeMetadata{OutcomeID: o.ID, Name: types.MetadataSubjects, Value: v})
	}
	if len(md) > 0 {
		if err := tx.WithContext(ctx).Create(&md).Error; err != nil {
			tb.Fatalf("seed outcome metadata: %v", err)
		}
	}
	return o
}

func SeedArea(tb testing.TB, ctx context.Context, tx *gorm.DB, component, area string, itemID uint) *types.Area {
	tb.Helper()
	a := &types.Area{Component: component, Area: area, ItemID: itemID}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed area: %v", err)
	}
	return a
}

func SeedAreaOutcome(tb testing.TB, ctx context.Context, tx *gorm.DB, areaID, outcomeID uint) *types.AreaOutcome {
	tb.Helper()
	l := &types.AreaOutcome{OutcomeAreaID: areaID, OutcomeID: outcomeID}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed area outcome: %v", err)
	}
	return l
}

func SeedUsedArea(tb testing.TB, ctx context.Context, tx *gorm.DB, areaID, cmid uint) *types.UsedArea {
	tb.Helper()
	u := &types.UsedArea{OutcomeAreaID: areaID, CMID: cmid}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed used area: %v", err)
	}
	return u
}

func SeedAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, usedAreaID, userID uint, min, max, raw float64, modified int64) *types.Attempt {
	tb.Helper()
	a := &types.Attempt{
		OutcomeUsedAreaID: usedAreaID,
		UserID:            userID,
		MinGrade:          min,
		MaxGrade:          max,
		RawGrade:          raw,
		TimeCreated:       modified,
		TimeModified:      modified,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return a
}

func SeedMark(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, userID, outcomeID uint, result types.MarkResult) *types.Mark {
	tb.Helper()
	now := time.Now().Unix()
	m := &types.Mark{
		CourseID:     courseID,
		UserID:       userID,
		OutcomeID:    outcomeID,
		GraderID:     1,
		Result:       result,
		TimeCreated:  now,
		TimeModified: now,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed mark: %v", err)
	}
	return m
}

func SeedHistory(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, userID, outcomeID uint, result types.MarkResult, at int64) *types.MarkHistory {
	tb.Helper()
	h := &types.MarkHistory{
		CourseID:    courseID,
		UserID:      userID,
		OutcomeID:   outcomeID,
		GraderID:    1,
		Result:      result,
		Action:      types.ActionUpdate,
		TimeCreated: at,
	}
	if err := tx.WithContext(ctx).Create(h).Error; err != nil {
		tb.Fatalf("seed history: %v", err)
	}
	return h
}

func PtrUint(v uint) *uint { return &v }
