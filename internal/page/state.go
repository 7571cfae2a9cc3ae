package page

// Form is the compose form state: Idle or Editing.
type Form interface{ form() }

// Idle means a submit appends a new record.
type Idle struct{}

// Editing means a submit replaces the record with ID.
type Editing struct{ ID string }

func (Idle) form()    {}
func (Editing) form() {}

// PendingDelete is the record waiting for delete confirmation.
type PendingDelete struct{ ID string }

// Message is the single status line shown under the form.
type Message struct {
	Text  string
	Error bool
}

const (
	LabelGenerate   = "Generate"
	LabelSave       = "Save"
	LabelGenerating = "Generating..."

	MsgSaveFailed     = "Error saving the QR code."
	MsgRemoveFailed   = "Error removing the QR code."
	MsgDownloadFailed = "Failed to download QR code."

	ConfirmTitle       = "Are you sure you want to delete this QR code?"
	ConfirmDescription = "Deleting the QR code is permanent."
)
