//go:build windows

package platform

import (
	"encoding/xml"
	"fmt"
	"os/exec"
	"strings"
)

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func xmlEscape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

// toastXML builds a generic toast. Critical notices use the reminder
// scenario so they stay on screen.
func toastXML(title, body string, opts Options) string {
	var sb strings.Builder
	sb.WriteString("<toast")
	if opts.Urgency == UrgencyCritical {
		sb.WriteString(` scenario="reminder"`)
	}
	sb.WriteString(`><visual><binding template="ToastGeneric">`)
	fmt.Fprintf(&sb, "<text>%s</text><text>%s</text>", xmlEscape(title), xmlEscape(body))
	if icon := strings.TrimSpace(opts.IconPath); icon != "" {
		fmt.Fprintf(&sb, `<image placement="appLogoOverride" src="%s"/>`, xmlEscape(icon))
	}
	sb.WriteString("</binding></visual></toast>")
	return sb.String()
}

// Notify displays a toast notification using the Windows notification center.
func Notify(title, body string, opts Options) error {
	script := fmt.Sprintf(`[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType=Windows Runtime] > $null; `+
		`[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType=Windows Runtime] > $null; `+
		`$doc = [Windows.Data.Xml.Dom.XmlDocument]::new(); `+
		`$doc.LoadXml(%s); `+
		`$toast = [Windows.UI.Notifications.ToastNotification]::new($doc); `+
		`[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier(%s).Show($toast);`,
		psQuote(toastXML(title, body, opts)), psQuote(AppName))
	return exec.Command("powershell.exe", "-NoProfile", "-Command", script).Run()
}
