// Package cli holds the output formatting and HTTP client behind the studio subcommands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/studio/internal/models"
	"github.com/hyperjump/studio/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAuthoringResult writes an AI reply. Text output prints the reply followed by
// the setup skeleton, when there is one.
func WriteAuthoringResult(w io.Writer, res *models.AuthoringResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "# %s / %s\n\n", res.Provider, res.Model)
	fmt.Fprintln(w, res.Text)
	if sk := res.Setup; sk != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "--- setup ---")
		field := func(label, v string) {
			if v != "" {
				fmt.Fprintf(w, "%-16s %s\n", label+":", v)
			}
		}
		field("title", sk.Title)
		field("range", sk.Range)
		field("summary", utils.Truncate(sk.Summary, 200))
		field("subphase", sk.SubphaseTitle)
		field("subphase range", sk.SubphaseRange)
		for _, t := range sk.Themes {
			fmt.Fprintf(w, "  theme:    %s\n", t)
		}
		for _, q := range sk.Questions {
			fmt.Fprintf(w, "  question: %s\n", q)
		}
		if !sk.Parsed {
			fmt.Fprintln(w, "(reply was not JSON; fields are fallbacks)")
		}
	}
	return nil
}

// WriteStatus writes the server status.
func WriteStatus(w io.Writer, st *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "provider:           %s\n", st.Provider)
	fmt.Fprintf(w, "model:              %s\n", st.Model)
	fmt.Fprintf(w, "storage_backend:    %s\n", st.StorageBackend)
	if st.SyncUpdatedAt != nil {
		fmt.Fprintf(w, "sync_updated_at:    %s\n", *st.SyncUpdatedAt)
	} else {
		fmt.Fprintf(w, "sync_updated_at:    never\n")
	}
	fmt.Fprintf(w, "uploads:            %d   # %d bytes\n", st.Uploads, st.UploadBytes)
	if st.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # sync document + uploads on disk\n", *st.DiskUsageBytes)
	}
	fmt.Fprintf(w, "auth_required:      %t\n", st.AuthRequired)
	return nil
}

// WriteExtracted writes text pulled from a local file.
func WriteExtracted(w io.Writer, res *models.AssetText, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	_, err := fmt.Fprintln(w, res.Text)
	return err
}
