package review

import (
	"errors"
	"fmt"
	"strings"

	"greenintellect-backend/internal/uploads"
)

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// Notice is the user-facing outcome of an admin action.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

func statusUpdatedNotice(u uploads.Upload) Notice {
	text := string(u.Status)
	if u.Status == uploads.StatusRejected && u.ErrorMessage != nil {
		text = "rejected: " + *u.ErrorMessage
	}
	return Notice{
		Title:       "Status Updated Successfully",
		Description: fmt.Sprintf("Upload %s.", text),
		Variant:     VariantDefault,
	}
}

func updateFailedNotice(err error) Notice {
	desc := "Failed to update upload status."
	switch {
	case errors.Is(err, ErrUpdateInProgress):
		desc = "Another update for this upload is still in progress."
	case errors.Is(err, uploads.ErrReasonRequired):
		desc = "Please provide a reason for rejection."
	case errors.Is(err, uploads.ErrConflict):
		desc = "This upload was changed by someone else. Reload and try again."
	case errors.Is(err, uploads.ErrNotFound):
		desc = "Upload not found."
	case errors.Is(err, uploads.ErrInvalidTransition):
		desc = capitalize(err.Error()) + "."
	}
	return Notice{Title: "Update Failed", Description: desc, Variant: VariantDestructive}
}

func deletedNotice() Notice {
	return Notice{Title: "Success", Description: "Upload deleted successfully.", Variant: VariantDefault}
}

func deleteFailedNotice(err error) Notice {
	desc := "Failed to delete upload."
	if errors.Is(err, ErrUpdateInProgress) {
		desc = "Another update for this upload is still in progress."
	}
	return Notice{Title: "Error", Description: desc, Variant: VariantDestructive}
}

func downloadFailedNotice() Notice {
	return Notice{
		Title:       "Download Failed",
		Description: "Could not download the PDF file. It may no longer exist.",
		Variant:     VariantDestructive,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
