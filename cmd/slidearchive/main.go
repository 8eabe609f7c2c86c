package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"slide-archive/internal/archive"
	"slide-archive/internal/config"
	"slide-archive/internal/domain"
	"slide-archive/internal/export"
	"slide-archive/internal/library"
	"slide-archive/internal/logging"
	"slide-archive/internal/slideshow"
	"slide-archive/internal/store"
	"slide-archive/internal/thumbs"
	"slide-archive/internal/workers"
)

var cfgFile string

// app bundles the wired services every command operates on.
type app struct {
	cfg      *config.Config
	registry *archive.Registry
	library  *library.Library
	shows    *slideshow.Service
	engine   *export.Engine
}

// newApp loads configuration, ensures the on-disk layout and wires the
// services.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	registry := archive.NewRegistry(cfg.Archives)
	cache := thumbs.NewCache(cfg.Thumbnails.MaxEdge, workers.ForIO(cfg.Thumbnails.Workers))
	slideStore := store.NewSlideshowStore(filepath.Join(cfg.DataDir, "slideshows.json"), registry.CanonicalKey)
	shows := slideshow.NewService(slideStore)
	lib := library.New(registry, cache, slideStore, shows, cfg.BundleDir())
	if err := lib.Bootstrap(); err != nil {
		return nil, err
	}
	engine := export.NewEngine(registry, export.DefaultLayout(cfg.Export.PageWidth, cfg.Export.PageHeight))

	return &app{
		cfg:      cfg,
		registry: registry,
		library:  lib,
		shows:    shows,
		engine:   engine,
	}, nil
}

// activeArchive resolves an --archive flag value, defaulting to the
// configured active archive.
func (a *app) activeArchive(key string) *archive.Archive {
	if key == "" {
		key = a.cfg.ActiveArchive
	}
	return a.registry.Get(key)
}

func main() {
	root := &cobra.Command{
		Use:           "slidearchive",
		Short:         "Manage a personal image archive, its slideshows and exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default slidearchive.yaml)")

	root.AddCommand(stateCmd(), updateCmd(), purgeCmd(), slideshowCmd(), exportCmd())

	thumbs.InitVips()
	defer thumbs.ShutdownVips()

	if err := root.Execute(); err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
}

func stateCmd() *cobra.Command {
	var archiveKey string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Reconcile the archive and print the full state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			state, err := a.library.BuildState(a.activeArchive(archiveKey))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		},
	}
	cmd.Flags().StringVar(&archiveKey, "archive", "", "archive key (default: configured active archive)")
	return cmd
}

func updateCmd() *cobra.Command {
	var (
		archiveKey string
		title      string
		artist     string
		year       string
		medium     string
		gallery    string
		size       string
		tags       string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit an item's metadata record",
		Long: "Edit an item's metadata record. Only fields whose flags are given " +
			"change; passing --title with an empty value clears the title " +
			"explicitly instead of reverting to the filename.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			arch := a.activeArchive(archiveKey)

			records, err := a.library.MetadataStore(arch).Load()
			if err != nil {
				return err
			}
			meta, ok := records[args[0]]
			if !ok {
				meta = domain.NewMetadata()
			}

			if cmd.Flags().Changed("title") {
				meta.SetTitle(title)
			}
			if cmd.Flags().Changed("artist") {
				meta.Artist = artist
			}
			if cmd.Flags().Changed("year") {
				meta.Year = year
			}
			if cmd.Flags().Changed("medium") {
				meta.Medium = medium
			}
			if cmd.Flags().Changed("gallery") {
				meta.Gallery = gallery
			}
			if cmd.Flags().Changed("size") {
				meta.Size = size
			}
			if cmd.Flags().Changed("tags") {
				meta.Tags = splitTags(tags)
			}

			return a.library.Update(arch, args[0], meta)
		},
	}
	cmd.Flags().StringVar(&archiveKey, "archive", "", "archive key (default: configured active archive)")
	cmd.Flags().StringVar(&title, "title", "", "display title")
	cmd.Flags().StringVar(&artist, "artist", "", "artist name")
	cmd.Flags().StringVar(&year, "year", "", "year")
	cmd.Flags().StringVar(&medium, "medium", "", "medium")
	cmd.Flags().StringVar(&gallery, "gallery", "", "gallery")
	cmd.Flags().StringVar(&size, "size", "", "physical size")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	return cmd
}

func purgeCmd() *cobra.Command {
	var archiveKey string
	cmd := &cobra.Command{
		Use:   "purge <id>",
		Short: "Move an item into the purge area and record its provenance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			arch := a.activeArchive(archiveKey)
			rec, removed, err := a.library.Purge(arch, args[0], nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %s -> %s (removed from %d slideshow slide(s))\n",
				rec.OriginalRelPath, rec.PurgedRelPath, removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&archiveKey, "archive", "", "archive key (default: configured active archive)")
	return cmd
}

func slideshowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slideshow",
		Short: "Manage slideshows and the current-slideshow pointer",
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a slideshow and make it current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			id, err := a.shows.Create(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	rename := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a slideshow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.shows.Rename(args[0], args[1])
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a slideshow (the last one cannot be deleted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			current, err := a.shows.Delete(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "current slideshow is now %s\n", current)
			return nil
		},
	}

	current := &cobra.Command{
		Use:   "current <id>",
		Short: "Make a slideshow the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.shows.SetCurrent(args[0])
		},
	}

	var remove bool
	var toggleArchive string
	toggle := &cobra.Command{
		Use:   "toggle <slideshow-id> <item-id>",
		Short: "Add an item to a slideshow, or remove it with --remove",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			ref := domain.SlideRef{
				Archive: a.activeArchive(toggleArchive).Key,
				ID:      args[1],
			}
			return a.shows.Toggle(args[0], ref, !remove)
		},
	}
	toggle.Flags().BoolVar(&remove, "remove", false, "remove the item instead of adding it")
	toggle.Flags().StringVar(&toggleArchive, "archive", "", "archive key of the item (default: configured active archive)")

	order := &cobra.Command{
		Use:   "order <slideshow-id> <archive>:<item-id>...",
		Short: "Replace a slideshow's slide order wholesale",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			refs := make([]domain.SlideRef, 0, len(args)-1)
			for _, arg := range args[1:] {
				key, id, found := strings.Cut(arg, ":")
				if !found {
					return fmt.Errorf("malformed slide reference %q, want <archive>:<item-id>", arg)
				}
				refs = append(refs, domain.SlideRef{Archive: a.registry.CanonicalKey(key), ID: id})
			}
			return a.shows.ReplaceOrder(args[0], refs)
		},
	}

	cmd.AddCommand(create, rename, del, current, toggle, order)
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		archiveKey string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "export [slideshow-id]",
		Short: "Render a slideshow to a PDF, one slide per page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			state, err := a.library.BuildState(a.activeArchive(archiveKey))
			if err != nil {
				return err
			}
			showID := state.CurrentSlideshowID
			if len(args) == 1 {
				showID = args[0]
			}

			out, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := a.engine.Export(out, state, showID); err != nil {
				out.Close()
				os.Remove(output)
				if errors.Is(err, domain.ErrEmptySlideshow) {
					return fmt.Errorf("nothing to export: %w", err)
				}
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&archiveKey, "archive", "", "archive key (default: configured active archive)")
	cmd.Flags().StringVarP(&output, "output", "o", "slideshow.pdf", "output file")
	return cmd
}

// splitTags splits a comma-separated flag value into trimmed tags.
func splitTags(value string) []string {
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
