package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/codex/pkg/mailer"
	mailtpl "github.com/oksasatya/codex/pkg/mailer/templates"
)

// SubjectForLifecycle picks the subject line from the job's Type field.
func SubjectForLifecycle(data map[string]any) string {
	typeStr := fmt.Sprintf("%v", data["Type"])
	switch strings.ToLower(typeStr) {
	case mailtpl.DeletionScheduled:
		return "Your account is scheduled for deletion"
	case mailtpl.AccountRestored:
		return "Your account has been restored"
	case mailtpl.AccountPurged:
		return "Your account has been permanently deleted"
	default:
		return "Account notification"
	}
}

func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
