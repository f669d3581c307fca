package labeling

import "strings"

// AnnotationRecord is one append-only row of the annotation table.
// CaseType and SubcaseType hold comma-joined intent and sub-intent lists.
type AnnotationRecord struct {
	ID          uint   `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	CallID      string `gorm:"column:call_id;not null;index:idx_call_annotation_call_user,priority:1" json:"call_id"`
	Username    string `gorm:"column:username;not null;index:idx_call_annotation_call_user,priority:2" json:"username"`
	Role        string `gorm:"column:role;not null" json:"role"`
	Date        string `gorm:"column:date;not null;index:idx_call_annotation_date_time,priority:1" json:"date"`
	Time        string `gorm:"column:time;not null;index:idx_call_annotation_date_time,priority:2" json:"time"`
	CaseType    string `gorm:"column:case_type" json:"case_type"`
	SubcaseType string `gorm:"column:subcase_type" json:"subcase_type"`
	Confidence  string `gorm:"column:confidence" json:"confidence"`
	Comments    string `gorm:"column:comments" json:"comments"`
}

func (AnnotationRecord) TableName() string { return "call_annotation_table" }

func (r *AnnotationRecord) Intents() []string {
	if r == nil {
		return []string{}
	}
	return SplitList(r.CaseType)
}

func (r *AnnotationRecord) SubIntents() []string {
	if r == nil {
		return []string{}
	}
	return SplitList(r.SubcaseType)
}

// Newer reports whether r sorts after o by (date, time, id).
func (r *AnnotationRecord) Newer(o *AnnotationRecord) bool {
	if o == nil {
		return r != nil
	}
	if r == nil {
		return false
	}
	if r.Date != o.Date {
		return r.Date > o.Date
	}
	if r.Time != o.Time {
		return r.Time > o.Time
	}
	return r.ID > o.ID
}

// SplitList splits a comma-separated list, trimming entries and dropping empties.
func SplitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinList(values []string) string {
	return strings.Join(values, ", ")
}
