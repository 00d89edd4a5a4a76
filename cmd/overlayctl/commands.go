package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"overlay-studio/internal/interaction"
	"overlay-studio/internal/overlay"
	"overlay-studio/internal/playback"
	"overlay-studio/internal/studio"

	"github.com/spf13/cobra"
)

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List overlays, bottom-most first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			list := s.store.Overlays()
			return c.render(cmd.OutOrStdout(), list, overlayTable(list))
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text|image> <content>",
		Short: "Add an overlay with default placement and style",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			o, err := s.store.Add(cmd.Context(), overlay.Type(args[0]), args[1])
			if err != nil {
				return err
			}
			if err := s.err(); err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), o, overlayTable([]overlay.Overlay{o}))
		},
	}
}

func (c *cli) updateCmd() *cobra.Command {
	var (
		content   string
		x, y      float64
		w, h      float64
		fontSize  int
		fontColor string
		opacity   int
		zIndex    int
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change overlay fields; out-of-range geometry is clamped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var p overlay.Patch
			if f.Changed("content") {
				p.Content = &content
			}
			if f.Changed("x") {
				p.X = &x
			}
			if f.Changed("y") {
				p.Y = &y
			}
			if f.Changed("width") {
				p.Width = &w
			}
			if f.Changed("height") {
				p.Height = &h
			}
			if f.Changed("font-size") {
				p.FontSize = &fontSize
			}
			if f.Changed("font-color") {
				p.FontColor = &fontColor
			}
			if f.Changed("opacity") {
				p.Opacity = &opacity
			}
			if f.Changed("z-index") {
				p.ZIndex = &zIndex
			}
			if p.IsEmpty() {
				return errors.New("nothing to update")
			}
			return c.commit(cmd, args[0], func(s *session) error {
				return s.store.Update(cmd.Context(), args[0], p)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&content, "content", "", "text, or image URL")
	f.Float64Var(&x, "x", 0, "left edge, percent of frame width")
	f.Float64Var(&y, "y", 0, "top edge, percent of frame height")
	f.Float64Var(&w, "width", 0, "width, percent of frame width")
	f.Float64Var(&h, "height", 0, "height, percent of frame height")
	f.IntVar(&fontSize, "font-size", overlay.DefaultFontSize, "font size in pixels")
	f.StringVar(&fontColor, "font-color", overlay.DefaultFontColor, "font color")
	f.IntVar(&opacity, "opacity", overlay.DefaultOpacity, "opacity percent")
	f.IntVar(&zIndex, "z-index", 0, "stacking order")
	return cmd
}

// frameFlags registers the pixel size of the player the offsets refer to.
func frameFlags(cmd *cobra.Command, frame *interaction.Frame) {
	cmd.Flags().Float64Var(&frame.Width, "frame-width", 1920, "player width in pixels")
	cmd.Flags().Float64Var(&frame.Height, "frame-height", 1080, "player height in pixels")
}

func (c *cli) moveCmd() *cobra.Command {
	var (
		dx, dy float64
		frame  interaction.Frame
	)
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Drag an overlay by a pixel offset, keeping it inside the frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.commit(cmd, args[0], func(s *session) error {
				o, ok := s.store.Get(args[0])
				if !ok {
					return fmt.Errorf("overlay %s: %w", args[0], studio.ErrOverlayNotFound)
				}
				g, err := interaction.NewEngine(s.store, c.log).BeginDrag(o, frame)
				if err != nil {
					return err
				}
				_, err = g.End(cmd.Context(), dx, dy)
				return err
			})
		},
	}
	cmd.Flags().Float64Var(&dx, "dx", 0, "horizontal offset in pixels")
	cmd.Flags().Float64Var(&dy, "dy", 0, "vertical offset in pixels")
	frameFlags(cmd, &frame)
	return cmd
}

func (c *cli) resizeCmd() *cobra.Command {
	var (
		handle string
		dx, dy float64
		frame  interaction.Frame
	)
	cmd := &cobra.Command{
		Use:   "resize <id>",
		Short: "Drag a corner handle by a pixel offset; the opposite corner stays put",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := interaction.ParseHandle(handle)
			if err != nil {
				return err
			}
			return c.commit(cmd, args[0], func(s *session) error {
				o, ok := s.store.Get(args[0])
				if !ok {
					return fmt.Errorf("overlay %s: %w", args[0], studio.ErrOverlayNotFound)
				}
				g, err := interaction.NewEngine(s.store, c.log).BeginResize(o, h, frame)
				if err != nil {
					return err
				}
				_, err = g.End(cmd.Context(), dx, dy)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&handle, "handle", interaction.HandleSE.String(), "corner: nw, ne, sw or se")
	cmd.Flags().Float64Var(&dx, "dx", 0, "horizontal offset in pixels")
	cmd.Flags().Float64Var(&dy, "dy", 0, "vertical offset in pixels")
	frameFlags(cmd, &frame)
	return cmd
}

// commit runs mutate against a fresh session and prints the overlay
// afterwards.
func (c *cli) commit(cmd *cobra.Command, id string, mutate func(*session) error) error {
	s, err := c.openSession(cmd.Context())
	if err != nil {
		return err
	}
	if err := mutate(s); err != nil {
		return err
	}
	if err := s.err(); err != nil {
		return err
	}
	o, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("overlay %s: %w", id, studio.ErrOverlayNotFound)
	}
	return c.render(cmd.OutOrStdout(), o, overlayTable([]overlay.Overlay{o}))
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete an overlay",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := s.store.Get(args[0]); !ok {
				return fmt.Errorf("overlay %s: %w", args[0], studio.ErrOverlayNotFound)
			}
			s.store.Remove(cmd.Context(), args[0])
			if err := s.err(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the stream a player would load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := studio.NewStore(c.client, studio.WithLogger(c.log))
			if err := store.LoadStreamConfig(cmd.Context(), c.client); err != nil {
				c.log.Warn("stream config unavailable, using default", "error", describe(err).Error())
			}
			cfg := store.StreamConfig()
			return c.render(cmd.OutOrStdout(), cfg, streamText(cfg))
		},
	}
}

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server and its overlay store are up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.client.Health(cmd.Context())
			if err != nil {
				return describe(err)
			}
			return c.render(cmd.OutOrStdout(), h, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s: %s\n", h.Status, h.Message)
				return err
			})
		},
	}
}

func (c *cli) probeCmd() *cobra.Command {
	var (
		wait      time.Duration
		nativeHLS bool
	)
	cmd := &cobra.Command{
		Use:   "probe [url]",
		Short: "Load the configured stream, or url, the way a player would",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store := studio.NewStore(c.client, studio.WithLogger(c.log))
			if len(args) == 1 {
				store.SetStreamURL(args[0])
			} else if err := store.LoadStreamConfig(ctx, c.client); err != nil {
				c.log.Warn("stream config unavailable, probing default stream", "error", describe(err).Error())
			}

			httpClient := &http.Client{Timeout: c.timeout}
			var opts []playback.HTTPMediaOption
			if nativeHLS {
				opts = append(opts, playback.WithNativeHLS())
			}
			var (
				engine    playback.AdaptiveEngine
				manifests *playback.ManifestEngine
			)
			if !nativeHLS {
				manifests = playback.NewManifestEngine(httpClient, c.log)
				engine = manifests
			}
			ctrl := playback.NewController(playback.NewHTTPMedia(httpClient, c.log, opts...), engine, c.log)
			defer ctrl.Close()

			settled := make(chan playback.Status, 1)
			ctrl.Subscribe(func(st playback.Status) {
				if st.State == playback.StateLoading {
					return
				}
				select {
				case settled <- st:
				default:
				}
			})
			ctrl.Apply(store.StreamConfig())

			var st playback.Status
			select {
			case st = <-settled:
			case <-time.After(wait):
				st = ctrl.Status()
			case <-ctx.Done():
				return ctx.Err()
			}

			report := probeReport{Status: st}
			if manifests != nil {
				if m, ok := manifests.LastManifest(); ok {
					report.Manifest = summarizeManifest(m)
				}
			}
			if err := c.render(cmd.OutOrStdout(), report, reportText(report)); err != nil {
				return err
			}
			switch st.State {
			case playback.StateError:
				return fmt.Errorf("%s: %w", playback.ErrorMessage, ctrl.Err())
			case playback.StateLoading:
				return fmt.Errorf("stream still loading after %s", wait)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 15*time.Second, "how long to wait for the stream to load")
	cmd.Flags().BoolVar(&nativeHLS, "native-hls", false, "bind HLS manifests directly instead of parsing them")
	return cmd
}
