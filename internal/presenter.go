package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// ViewKind selects which panel the presenter shows
type ViewKind int

const (
	ViewIdle ViewKind = iota
	ViewLoading
	ViewError
	ViewSuccess
)

func (k ViewKind) String() string {
	switch k {
	case ViewLoading:
		return "loading"
	case ViewError:
		return "error"
	case ViewSuccess:
		return "success"
	default:
		return "idle"
	}
}

// ResultView is everything needed to draw the result panel
type ResultView struct {
	Kind            ViewKind
	Message         string
	ValidationError string
	Retry           bool
	FileName        string
	Extension       string
	FileSize        int64
	DownloadURL     string
	AbsoluteURL     string
	Accent          lipgloss.Color
}

// NotificationLevel of a transient notification
type NotificationLevel int

const (
	NotifySuccess NotificationLevel = iota
	NotifyError
)

// Notification is transient feedback that never changes session state
type Notification struct {
	Level NotificationLevel
	Text  string
}

// Sharer sends a converted file by email
type Sharer interface {
	ShareFile(ctx context.Context, req ShareRequest) (*ShareResult, error)
}

const shareFailedMessage = "Failed to share file"

// Presenter turns session snapshots into views and runs the success-panel actions
type Presenter struct {
	origin    string
	theme     Theme
	identity  Identity
	sharer    Sharer
	clipboard func(string) error
}

// PresenterOption configures a Presenter
type PresenterOption func(*Presenter)

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) PresenterOption {
	return func(p *Presenter) {
		p.clipboard = write
	}
}

// NewPresenter creates a presenter. origin is the scheme+host prefixed to
// relative download links.
func NewPresenter(origin string, theme Theme, identity Identity, sharer Sharer, opts ...PresenterOption) *Presenter {
	p := &Presenter{
		origin:    strings.TrimRight(origin, "/"),
		theme:     theme,
		identity:  identity,
		sharer:    sharer,
		clipboard: clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AbsoluteURL joins origin and a relative download path verbatim. Absolute
// URLs pass through.
func AbsoluteURL(origin, downloadURL string) string {
	if strings.HasPrefix(downloadURL, "http://") || strings.HasPrefix(downloadURL, "https://") {
		return downloadURL
	}
	return origin + downloadURL
}

// Render maps a snapshot to a view. It has no side effects.
func (p *Presenter) Render(snap SessionSnapshot) ResultView {
	view := ResultView{ValidationError: snap.ValidationError, Accent: p.theme.Accent}
	if snap.Request != nil {
		view.Accent = p.theme.ForType(snap.Request.ConversionType).Accent
	}

	switch snap.State {
	case StateSubmitting:
		view.Kind = ViewLoading
		if snap.Request != nil && snap.Request.File != nil {
			view.Message = fmt.Sprintf("Converting %s to %s...", snap.Request.File.Name, strings.ToUpper(snap.Request.TargetFormat))
		}
	case StateFailed:
		view.Kind = ViewError
		view.Message = snap.ErrorMessage
		if view.Message == "" {
			view.Message = ConversionFailedMessage
		}
		view.Retry = true
	case StateSucceeded:
		if snap.Result == nil {
			view.Kind = ViewError
			view.Message = ConversionFailedMessage
			view.Retry = true
			break
		}
		view.Kind = ViewSuccess
		view.Message = snap.Result.Message
		view.FileName = snap.Result.FileName()
		view.Extension = snap.Result.Extension()
		view.FileSize = snap.Result.FileSize
		view.DownloadURL = snap.Result.DownloadURL
		view.AbsoluteURL = AbsoluteURL(p.origin, snap.Result.DownloadURL)
	default:
		view.Kind = ViewIdle
	}
	return view
}

// CopyLink puts the absolute download link of result on the clipboard and returns it.
func (p *Presenter) CopyLink(result *ConversionResult) (string, error) {
	if result == nil || result.DownloadURL == "" {
		return "", &ValidationError{Field: "download_url", Message: "Nothing to copy yet"}
	}
	link := AbsoluteURL(p.origin, result.DownloadURL)
	if err := p.clipboard(link); err != nil {
		return link, fmt.Errorf("copy link to clipboard: %w", err)
	}
	LogDebug("Copied %s to clipboard", link)
	return link, nil
}

// Share emails the converted file. The address is validated before any call
// is made; the outcome is reported as a notification.
func (p *Presenter) Share(ctx context.Context, result *ConversionResult, recipient, message string) Notification {
	if result == nil {
		return Notification{Level: NotifyError, Text: "There is no converted file to share"}
	}
	if err := ValidateEmail(recipient); err != nil {
		return Notification{Level: NotifyError, Text: UserMessage(err, shareFailedMessage)}
	}
	if p.sharer == nil {
		return Notification{Level: NotifyError, Text: shareFailedMessage}
	}

	req := ShareRequest{
		Filename:       result.FileName(),
		RecipientEmail: strings.TrimSpace(recipient),
		Message:        message,
	}
	resp, err := p.sharer.ShareFile(ctx, req)
	if err != nil {
		LogWarn("Share failed: %v", err)
		return Notification{Level: NotifyError, Text: UserMessage(err, shareFailedMessage)}
	}
	if !resp.Success {
		text := resp.Message
		if text == "" {
			text = shareFailedMessage
		}
		return Notification{Level: NotifyError, Text: text}
	}

	text := resp.Message
	if text == "" {
		text = "File shared successfully"
	}
	if p.identity.SignedIn() {
		LogInfo("%s shared %s with %s", p.identity.DisplayName(), req.Filename, req.RecipientEmail)
	}
	return Notification{Level: NotifySuccess, Text: fmt.Sprintf("%s (%s)", text, req.RecipientEmail)}
}

// Format renders view for the terminal.
func (p *Presenter) Format(view ResultView) string {
	accent := lipgloss.NewStyle().Foreground(view.Accent).Bold(true)
	muted := lipgloss.NewStyle().Foreground(p.theme.Muted)
	var b strings.Builder

	switch view.Kind {
	case ViewLoading:
		b.WriteString(accent.Render("⠿ " + view.Message))
	case ViewError:
		b.WriteString(lipgloss.NewStyle().Foreground(p.theme.Error).Bold(true).Render("✗ " + view.Message))
		if view.Retry {
			b.WriteString("\n")
			b.WriteString(muted.Render("Run the command again to retry."))
		}
	case ViewSuccess:
		b.WriteString(lipgloss.NewStyle().Foreground(p.theme.Success).Bold(true).Render("✓ Conversion complete"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %s %s", accent.Render(view.FileName), muted.Render("("+view.Extension+")"))
		if view.FileSize > 0 {
			fmt.Fprintf(&b, " %s", muted.Render(humanize.Bytes(uint64(view.FileSize))))
		}
		fmt.Fprintf(&b, "\n  Download: %s", view.AbsoluteURL)
	default:
		if view.ValidationError != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(p.theme.Warning).Render("⚠ " + view.ValidationError))
		}
	}
	return b.String()
}

// FormatNotification renders a share or copy notification.
func (p *Presenter) FormatNotification(n Notification) string {
	if n.Level == NotifyError {
		return lipgloss.NewStyle().Foreground(p.theme.Error).Render("✗ " + n.Text)
	}
	return lipgloss.NewStyle().Foreground(p.theme.Success).Render("✓ " + n.Text)
}
