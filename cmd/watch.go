package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/plst4-cli/plst4/color"
	"github.com/plst4-cli/plst4/config"
	"github.com/plst4-cli/plst4/history"
	"github.com/plst4-cli/plst4/icon"
	"github.com/plst4-cli/plst4/key"
	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/network"
	"github.com/plst4-cli/plst4/open"
	"github.com/plst4-cli/plst4/socket"
	"github.com/plst4-cli/plst4/style"
	"github.com/plst4-cli/plst4/tui"
	"github.com/plst4-cli/plst4/util"
	"github.com/plst4-cli/plst4/watch"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolP("continue", "c", false, "Rejoin the most recently joined session")
	watchCmd.Flags().Bool("no-tui", false, "Print plain status lines instead of the interactive view")

	watchCmd.Flags().StringP("listen", "l", "", "Listen address of the embed bridge")
	lo.Must0(viper.BindPFlag(key.EmbedListen, watchCmd.Flags().Lookup("listen")))

	watchCmd.Flags().BoolP("open", "o", true, "Open the embed bridge page in a browser")
	lo.Must0(viper.BindPFlag(key.EmbedOpenBrowser, watchCmd.Flags().Lookup("open")))

	watchCmd.Flags().Bool("automated", false, "Mark this client as automated")
	lo.Must0(viper.BindPFlag(key.PlayerAutomated, watchCmd.Flags().Lookup("automated")))

	watchCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on the embed bridge")
	lo.Must0(viper.BindPFlag(key.MetricsEnable, watchCmd.Flags().Lookup("metrics")))
}

var watchCmd = &cobra.Command{
	Use:   "watch [session | watch url]",
	Short: "Join a watch session and keep local players in sync",
	Example: "  plst4 watch 8f3a2c\n" +
		"  plst4 watch https://plst4.example.org/watch/8f3a2c\n" +
		"  plst4 watch --continue",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		server, err := url.Parse(viper.GetString(key.ServerURL))
		handleErr(err)

		var arg string
		if len(args) > 0 {
			arg = args[0]
		}

		server, session, err := resolveSession(server, arg, lo.Must(cmd.Flags().GetBool("continue")))
		handleErr(err)

		if viper.GetBool(key.HistorySave) {
			if err := history.Save(server.String(), session); err != nil {
				log.Warn("saving session history: " + err.Error())
			}
		}

		handleErr(runWatch(cmd.Context(), server, session, lo.Must(cmd.Flags().GetBool("no-tui"))))
	},
}

// parseTarget accepts a bare session id or a full watch URL, which also names the server.
func parseTarget(server *url.URL, arg string) (*url.URL, string, error) {
	if !strings.Contains(arg, "://") {
		return server, strings.Trim(arg, "/"), nil
	}

	u, err := url.Parse(arg)
	if err != nil {
		return nil, "", fmt.Errorf("invalid watch url: %w", err)
	}

	prefix, id, found := strings.Cut(u.Path, "/watch/")
	id = strings.Trim(id, "/")
	if !found || id == "" || strings.Contains(id, "/") {
		return nil, "", fmt.Errorf("not a watch url: %s", arg)
	}

	base := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: prefix}
	return base, id, nil
}

func resolveSession(server *url.URL, arg string, cont bool) (*url.URL, string, error) {
	if arg != "" {
		return parseTarget(server, arg)
	}

	if cont {
		last, err := history.Last(server.String())
		if err != nil {
			return nil, "", err
		}
		session, ok := last.Get()
		if !ok {
			return nil, "", errors.New("no session to continue on " + server.String())
		}
		return server, session.ID, nil
	}

	if !util.IsTerminal() {
		return nil, "", errors.New("a session id is required")
	}

	session, err := askSession(server)
	if err != nil {
		return nil, "", err
	}
	return parseTarget(server, session)
}

const otherSession = "another session..."

func askSession(server *url.URL) (string, error) {
	recent, err := history.Recent(server.String())
	if err != nil {
		log.Warn("reading session history: " + err.Error())
	}

	var session string
	if len(recent) > 0 {
		options := append(lo.Map(recent, func(s *history.Session, _ int) string {
			return s.ID
		}), otherSession)

		err := survey.AskOne(&survey.Select{
			Message: "Join session on " + server.Host,
			Options: options,
		}, &session)
		if err != nil {
			return "", err
		}
		if session != otherSession {
			return session, nil
		}
	}

	err = survey.AskOne(&survey.Input{
		Message: "Session id or watch url",
	}, &session, survey.WithValidator(survey.Required))
	return session, err
}

type watchControls struct {
	session *watch.Session
}

func (c watchControls) TogglePause() bool { return c.session.TogglePause() }
func (c watchControls) Advance()          { c.session.Advance() }

func runWatch(ctx context.Context, server *url.URL, id string, plain bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	mpv, err := mpvPath()
	if err != nil {
		log.Warn("mpv not found, inline playback disabled")
		mpv = ""
	}

	session, err := watch.New(watch.Config{
		Server:  server,
		Session: id,
		Client:  network.Client,
		Backoff: socket.Backoff{
			Base: config.Millis(key.SocketBackoffBaseMs),
			Cap:  viper.GetInt(key.SocketBackoffCap),
		},
		AdvanceInterval: config.Millis(key.AdvanceMinIntervalMs),
		SwapDelay:       config.Millis(key.PageSwapDelayMs),
		SettleDelay:     config.Millis(key.PageSettleDelayMs),
		MpvPath:         mpv,
		Video:           viper.GetBool(key.PlayerVideo),
		Automated:       viper.GetBool(key.PlayerAutomated),
		Listen:          viper.GetString(key.EmbedListen),
		OpenPage: func(pageURL string) error {
			if !viper.GetBool(key.EmbedOpenBrowser) {
				fmt.Printf("%s open %s for YouTube, SoundCloud and Niconico playback\n", icon.Get(icon.Toast), style.Fg(color.Cyan)(pageURL))
				return nil
			}
			return open.Start(pageURL, viper.GetString(key.EmbedBrowser))
		},
		Metrics: viper.GetBool(key.MetricsEnable),
	})
	if err != nil {
		return err
	}

	if mpv == "" {
		fmt.Fprintf(os.Stderr, "%s mpv not found, inline audio and video are disabled (see plst4 check)\n", icon.Get(icon.Fail))
	}

	if plain || !util.IsTerminal() {
		return ended(session.Run(ctx, tui.NewPrinter(os.Stdout)))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tui.New(ctx, tui.Options{
		Server:   server.String(),
		Session:  id,
		Controls: watchControls{session: session},
	})

	done := make(chan error, 1)
	go func() {
		done <- session.Run(ctx, program)
		cancel()
	}()

	uiErr := program.Run()
	cancel()
	runErr := <-done

	if errors.Is(uiErr, tui.ErrQuit) {
		return nil
	}
	if runErr := ended(runErr); runErr != nil {
		return runErr
	}
	return ended(uiErr)
}

// ended maps the ways a session normally stops to nil.
func ended(err error) error {
	var terminal *socket.TerminalError
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	case errors.As(err, &terminal) && terminal.Code == 1000:
		return nil
	default:
		return err
	}
}
