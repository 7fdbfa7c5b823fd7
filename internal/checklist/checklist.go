// Package checklist tracks which of the fixed required document
// categories a submission has satisfied, either by an uploaded artifact
// or by a stated reason for its absence.
package checklist

import (
	"gorm.io/gorm"

	"github.com/okfngroup/audit-intake/internal/database"
)

// RequiredCategories is the fixed ordered checklist of document
// categories every intake must account for. The order here is the order
// shown to the user and reported as outstanding; it never changes at
// runtime.
var RequiredCategories = []string{
	"계약서 파일",
	"계약 체결 관련 내부 품의서",
	"일상감사요청서",
	"입찰 평가표",
	"예산 內사용 여부",
	"업체 제안서",
	"계약 상대방 사업자등록증 또는 등기부등본",
	"소프트웨어 기술자 경력증명서 (해당할 경우)",
	"기타 관련 문서 (협약서, 과업지시서, 재무제표 등)",
}

// Completeness is the result of evaluating a submission against the
// required categories. Satisfied and Outstanding partition
// RequiredCategories; Outstanding keeps the declaration order.
type Completeness struct {
	Satisfied   []string
	Outstanding []string
}

// Complete reports whether nothing is outstanding.
func (c Completeness) Complete() bool {
	return len(c.Outstanding) == 0
}

// Evaluate computes the completeness of a submission directly from the
// store. A category is satisfied when an uploaded file's display name
// contains the label (substring containment, the display name is
// "{category} - {original name}") or a reason row's label equals it
// exactly. Matching is case-sensitive and never cached.
func Evaluate(db *gorm.DB, submissionID string) (Completeness, error) {
	var result Completeness
	for _, category := range RequiredCategories {
		files, err := database.CountUploadedFilesByCategory(db, submissionID, category)
		if err != nil {
			return Completeness{}, err
		}
		reasons, err := database.CountMissingReasons(db, submissionID, category)
		if err != nil {
			return Completeness{}, err
		}
		if files > 0 || reasons > 0 {
			result.Satisfied = append(result.Satisfied, category)
		} else {
			result.Outstanding = append(result.Outstanding, category)
		}
	}
	return result, nil
}
