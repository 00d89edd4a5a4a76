package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"overlay-studio/internal/overlay"
	"overlay-studio/internal/playback"

	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// render writes v in the selected format. Text output is delegated to text.
func (c *cli) render(w io.Writer, v any, text func(io.Writer) error) error {
	switch c.output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		// Round-trip through JSON so YAML keys match the API field names.
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	}
	return text(w)
}

func overlayTable(list []overlay.Overlay) func(io.Writer) error {
	return func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tX\tY\tW\tH\tZ\tCONTENT")
		for _, o := range list {
			fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%d\t%s\n",
				o.ID, o.Type, o.X, o.Y, o.Width, o.Height, o.ZIndex, o.Content)
		}
		return tw.Flush()
	}
}

func streamText(cfg overlay.StreamConfig) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "url:   %s\ntitle: %s\nlive:  %t\n", cfg.URL, cfg.Title, cfg.IsLive)
		return err
	}
}

// probeReport is what probe prints: the settled player status and, when an
// adaptive session loaded one, a summary of the playlist.
type probeReport struct {
	playback.Status
	Manifest *manifestSummary `json:"manifest,omitempty"`
}

type manifestSummary struct {
	Kind           string  `json:"kind"`
	Version        int     `json:"version,omitempty"`
	TargetDuration int     `json:"targetDuration,omitempty"`
	Segments       int     `json:"segments"`
	Variants       int     `json:"variants"`
	Duration       float64 `json:"duration"`
	Ended          bool    `json:"ended"`
}

func summarizeManifest(m *playback.Manifest) *manifestSummary {
	kind := "media"
	if m.IsMaster() {
		kind = "master"
	}
	return &manifestSummary{
		Kind:           kind,
		Version:        m.Version,
		TargetDuration: m.TargetDuration,
		Segments:       len(m.Segments),
		Variants:       len(m.Variants),
		Duration:       m.Duration(),
		Ended:          m.Ended,
	}
}

func reportText(r probeReport) func(io.Writer) error {
	return func(w io.Writer) error {
		if err := statusText(r.Status)(w); err != nil {
			return err
		}
		m := r.Manifest
		if m == nil {
			return nil
		}
		var err error
		if m.Kind == "master" {
			_, err = fmt.Fprintf(w, "manifest: master, %d variants\n", m.Variants)
		} else {
			_, err = fmt.Fprintf(w, "manifest: media, %d segments, %.1fs, ended=%t\n", m.Segments, m.Duration, m.Ended)
		}
		return err
	}
}

func statusText(st playback.Status) func(io.Writer) error {
	return func(w io.Writer) error {
		fmt.Fprintf(w, "state:    %s\n", st.State)
		fmt.Fprintf(w, "url:      %s\n", st.URL)
		if st.Source != st.URL {
			fmt.Fprintf(w, "source:   %s\n", st.Source)
		}
		fmt.Fprintf(w, "adaptive: %t\n", st.Adaptive)
		fmt.Fprintf(w, "playing:  %t\n", st.Playing)
		if st.Error != "" {
			fmt.Fprintf(w, "error:    %s\n", st.Error)
		}
		return nil
	}
}
