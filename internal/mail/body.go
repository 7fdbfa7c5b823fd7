package mail

import (
	"fmt"
	"strings"

	"github.com/okfngroup/audit-intake/internal/database"
)

// BodyInput is everything the notification body summarizes.
type BodyInput struct {
	Submission      *database.Submission
	Files           []database.UploadedFile
	Reasons         []database.MissingFileReason
	ExtraMessage    string
	ReportRecipient string
	ZipAttached     bool
	ReportAttached  bool
}

// BuildBody composes the plaintext notification: identity fields, the
// uploaded-file list, the missing-file-and-reason list, and notes about
// which attachments made it. A failed report generation is noted rather
// than blocking the send.
func BuildBody(in BodyInput) string {
	sub := in.Submission
	var b strings.Builder
	b.WriteString("일상감사 접수 완료 알림\n\n")
	fmt.Fprintf(&b, "접수 ID: %s\n", sub.SubmissionID)
	fmt.Fprintf(&b, "접수일자: %s\n", sub.SubmissionDate)
	if in.ReportRecipient != "" {
		fmt.Fprintf(&b, "보고서 회신 이메일: %s\n", in.ReportRecipient)
	}
	b.WriteString("\n접수 정보:\n")
	fmt.Fprintf(&b, "- 접수부서: %s\n", sub.Department)
	fmt.Fprintf(&b, "- 담당자: %s (%s)\n", sub.Manager, sub.Phone)
	fmt.Fprintf(&b, "- 계약명: %s\n", sub.ContractName)
	fmt.Fprintf(&b, "- 계약기간: %s\n", sub.ContractDate)
	fmt.Fprintf(&b, "- 계약금액: %s원\n", sub.ContractAmount)
	fmt.Fprintf(&b, "- 계약방식: %s\n", sub.ContractMethod)
	fmt.Fprintf(&b, "- 예산과목: %s\n", sub.BudgetItem)

	if in.ExtraMessage != "" {
		fmt.Fprintf(&b, "\n추가 메시지:\n%s\n", in.ExtraMessage)
	}

	b.WriteString("\n업로드된 파일 목록:\n")
	for _, file := range in.Files {
		fmt.Fprintf(&b, "- %s\n", file.FileName)
	}

	if len(in.Reasons) > 0 {
		b.WriteString("\n누락된 파일 및 사유:\n")
		for _, reason := range in.Reasons {
			fmt.Fprintf(&b, "- %s (사유: %s)\n", reason.FileName, reason.Reason)
		}
	}

	if in.ZipAttached {
		b.WriteString("\n업로드된 파일들이 ZIP 파일로 압축되어 첨부되어 있습니다.\n")
	}
	if in.ReportAttached {
		b.WriteString("AI 기반 감사보고서 초안이 첨부되어 있습니다.\n")
	} else {
		b.WriteString("감사보고서 초안 생성에 실패하여 첨부되지 않았습니다.\n")
	}
	return b.String()
}
