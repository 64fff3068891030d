package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/notaflow/notaflow/internal/client"
	"github.com/notaflow/notaflow/internal/gateway"
	"github.com/notaflow/notaflow/internal/model"
	"github.com/notaflow/notaflow/internal/notestore"
	"github.com/notaflow/notaflow/internal/prefs"
)

const clientTimeout = 30 * time.Second

func clientCommands() []*cobra.Command {
	return []*cobra.Command{
		newRegisterCmd(),
		newLoginCmd(),
		newListCmd(),
		newNewCmd(),
		newShowCmd(),
		newEditCmd(),
		newPinCmd(),
		newRmCmd(),
		newUploadCmd(),
		newAvatarCmd(),
		newThemeCmd(),
		newExportCmd(),
	}
}

func clientContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), clientTimeout)
}

// loadClient builds an authenticated gateway client from saved prefs.
func loadClient() (*gateway.Client, prefs.Prefs, string, error) {
	path, err := prefs.DefaultPath()
	if err != nil {
		return nil, prefs.Prefs{}, "", err
	}
	p, err := prefs.Load(path)
	if err != nil {
		return nil, prefs.Prefs{}, "", err
	}
	if p.Token == "" {
		return nil, prefs.Prefs{}, "", fmt.Errorf("not logged in, run: notaflow login")
	}
	return gateway.NewClient(p.ServerURL, gateway.WithToken(p.Token)), p, path, nil
}

// openSession loads the note list into an editing session backed by the
// saved credentials.
func openSession(ctx context.Context) (*client.Session, prefs.Prefs, error) {
	gw, p, _, err := loadClient()
	if err != nil {
		return nil, prefs.Prefs{}, err
	}
	session := client.NewSession(gw, p.UserID)
	if err := session.Open(ctx); err != nil {
		return nil, prefs.Prefs{}, err
	}
	return session, p, nil
}

func authenticate(cmd string, login bool) *cobra.Command {
	var server string
	c := &cobra.Command{
		Use:   cmd + " <email> <password>",
		Short: cmd + " and save the session locally",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := clientContext()
			defer cancel()

			path, err := prefs.DefaultPath()
			if err != nil {
				return err
			}
			p, err := prefs.Load(path)
			if err != nil {
				return err
			}
			if server != "" {
				p.ServerURL = server
			}
			if p.ServerURL == "" {
				return fmt.Errorf("--server is required on first use")
			}

			gw := gateway.NewClient(p.ServerURL)
			creds := gateway.Credentials{Email: args[0], Password: args[1]}
			var result gateway.AuthResult
			if login {
				result, err = gw.Login(ctx, creds)
			} else {
				result, err = gw.Register(ctx, creds)
			}
			if err != nil {
				return err
			}
			p.Token = result.Token
			p.UserID = result.UserID
			p.Email = result.Email
			if err := prefs.Save(path, p); err != nil {
				return err
			}
			fmt.Printf("logged in as %s\n", result.Email)
			return nil
		},
	}
	c.Flags().StringVar(&server, "server", "", "server base url, e.g. http://localhost:9901")
	return c
}

func newRegisterCmd() *cobra.Command { return authenticate("register", false) }
func newLoginCmd() *cobra.Command    { return authenticate("login", true) }

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list notes, pinned first",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := clientContext()
			defer cancel()
			session, _, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer session.Close(ctx)
			for _, note := range session.Notes() {
				marker := " "
				if note.Pinned {
					marker = "*"
				}
				mtime := time.UnixMilli(note.Mtime).Format("2006-01-02 15:04")
				fmt.Printf("%s %s  %s  %s\n", marker, note.ID, mtime, note.Title)
			}
			return nil
		},
	}
}

func newNewCmd() *cobra.Command {
	var content string
	c := &cobra.Command{
		Use:   "new [title]",
		Short: "create a note",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := clientContext()
			defer cancel()
			session, _, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer session.Close(ctx)
			var title string
			if len(args) > 0 {
				title = args[0]
			}
			note, err := session.Create(ctx, title, content)
			if err != nil {
				return err
			}
			fmt.Printf("created %s  %s\n", note.ID, note.Title)
			return nil
		},
	}
	c.Flags().StringVar(&content, "content", "", "initial note content")
	return c
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <note-id>",
		Short: "print a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := clientContext()
			defer cancel()
			gw, _, _, err := loadClient()
			if err != nil {
				return err
			}
			note, err := gw.GetNote(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("# %s\n\n%s\n", note.Title, note.Content)
			return nil
		},
	}
}

func newEditCmd() *cobra.Command {
	var title string
	var contentFile string
	c := &cobra.Command{
		Use:   "edit <note-id>",
		Short: "edit a note's title or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) (retErr error) {
			ctx, cancel := clientContext()
			defer cancel()
			session, _, err := openSession(ctx)
			if err != nil {
				return err
			}
			edited := false
			defer func() {
				// the close flushes the edit; its error is the save result
				if cerr := session.Close(ctx); retErr == nil {
					retErr = cerr
				}
				if retErr == nil && edited {
					fmt.Printf("saved %s\n", args[0])
				}
			}()

			patch := notestore.Patch{}
			if title != "" {
				patch.Title = &title
			}
			if contentFile != "" {
				var data []byte
				if contentFile == "-" {
					data, err = io.ReadAll(os.Stdin)
				} else {
					data, err = os.ReadFile(contentFile)
				}
				if err != nil {
					return err
				}
				content := string(data)
				patch.Content = &content
			}
			if patch.Title == nil && patch.Content == nil {
				return fmt.Errorf("nothing to change, pass --title or --content-file")
			}

			session.SwitchTo(args[0])
			session.Edit(args[0], patch)
			edited = true
			return nil
		},
	}
	c.Flags().StringVar(&title, "title", "", "new title")
	c.Flags().StringVar(&contentFile, "content-file", "", "file with the new content, - for stdin")
	return c
}

func newPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <note-id>",
		Short: "toggle a note's pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := clientContext()
			defer cancel()
			session, _, err := openSession(ctx)
			if err != nil {
				return err
			}
			session.TogglePin(args[0])
			if err := session.Close(ctx); err != nil {
				return err
			}
			note, ok := session.Note(args[0])
			if !ok {
				return fmt.Errorf("note not found: %s", args[0])
			}
			state := "unpinned"
			if note.Pinned {
				state = "pinned"
			}
			fmt.Printf("%s %s\n", state, args[0])
			return nil
		},
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <note-id>",
		Short: "delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := clientContext()
			defer cancel()
			session, _, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer session.Close(ctx)
			if err := session.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "upload an image and print its public url",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := clientContext()
			defer cancel()
			gw, _, _, err := loadClient()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			image, err := gw.UploadImage(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			fmt.Printf("![%s](%s)\n", image.Name, image.URL)
			return nil
		},
	}
}

func newAvatarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <file>",
		Short: "upload a profile avatar",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := clientContext()
			defer cancel()
			gw, _, _, err := loadClient()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			profile, err := gw.UploadAvatar(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			fmt.Printf("avatar set: %s\n", profile.AvatarURL)
			return nil
		},
	}
}

func newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme <light|dark>",
		Short: "switch the ui theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			theme := strings.ToLower(args[0])
			if theme != model.ThemeLight && theme != model.ThemeDark {
				return fmt.Errorf("unknown theme: %s", args[0])
			}
			ctx, cancel := clientContext()
			defer cancel()
			gw, p, path, err := loadClient()
			if err != nil {
				return err
			}
			profile, err := gw.UpdateProfile(ctx, gateway.ProfileUpdate{Theme: &theme})
			if err != nil {
				return err
			}
			p.Theme = profile.Theme
			p.DisplayName = profile.DisplayName
			p.Font = profile.Font
			if err := prefs.Save(path, p); err != nil {
				return err
			}
			fmt.Printf("theme: %s\n", profile.Theme)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var out string
	c := &cobra.Command{
		Use:   "export <note-id>",
		Short: "export a note as a standalone html document",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := clientContext()
			defer cancel()
			gw, _, _, err := loadClient()
			if err != nil {
				return err
			}
			data, err := gw.ExportNoteHTML(ctx, args[0])
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	c.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout")
	return c
}
