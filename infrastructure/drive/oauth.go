package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Auth modes accepted by Open
const (
	AuthServiceAccount = "service_account"
	AuthOAuth          = "oauth"
)

// Settings selects how Open signs in to Google Drive
type Settings struct {
	AuthMode        string
	CredentialsFile string
	TokenFile       string    // OAuth only: cached user token
	CallbackPort    int       // OAuth only: loopback port for the consent redirect, 0 picks a free port
	Scopes          []string  // OAuth only: drive.DriveFileScope when empty
	Prompt          io.Writer // OAuth only: receives the consent URL and warnings, stdout when nil
}

func (s Settings) scopes() []string {
	if len(s.Scopes) == 0 {
		return []string{drive.DriveFileScope}
	}
	return s.Scopes
}

func (s Settings) prompt() io.Writer {
	if s.Prompt == nil {
		return os.Stdout
	}
	return s.Prompt
}

// Open creates a client for the configured auth mode
func Open(ctx context.Context, s Settings, opts ...ClientOption) (*Client, error) {
	switch s.AuthMode {
	case AuthOAuth:
		return NewClientWithOAuth(ctx, s, opts...)
	case AuthServiceAccount, "":
		return NewClient(ctx, s.CredentialsFile, opts...)
	default:
		return nil, fmt.Errorf("unknown google auth mode %q", s.AuthMode)
	}
}

// NewClientWithOAuth creates a Google Drive client acting as the user who
// granted consent. Uploaded segments and clips are owned by that user.
func NewClientWithOAuth(ctx context.Context, s Settings, opts ...ClientOption) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.driveService != nil {
		return c, nil
	}

	b, err := os.ReadFile(s.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read OAuth credentials file: %w", err)
	}
	conf, err := google.ConfigFromJSON(b, s.scopes()...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse OAuth credentials: %w", err)
	}

	store := tokenFile(s.TokenFile)
	flow := consent{port: s.CallbackPort, out: s.prompt(), openBrowser: openBrowser}
	tok, err := userToken(ctx, conf, store, flow)
	if err != nil {
		return nil, fmt.Errorf("unable to get OAuth token: %w", err)
	}

	ts := &savingTokenSource{
		base: conf.TokenSource(ctx, tok),
		file: store,
		last: tok.AccessToken,
		out:  s.prompt(),
	}
	srv, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	c.driveService = &GoogleDriveService{service: srv}
	return c, nil
}

// userToken returns the cached token when it is still usable, refreshing it
// if needed, and asks the user for consent otherwise
func userToken(ctx context.Context, conf *oauth2.Config, store tokenFile, flow consent) (*oauth2.Token, error) {
	if cached, err := store.load(); err == nil {
		tok, err := conf.TokenSource(ctx, cached).Token()
		if err == nil {
			if tok.AccessToken != cached.AccessToken {
				store.saveOrWarn(tok, flow.out)
			}
			return tok, nil
		}
		fmt.Fprintf(flow.out, "Cached token in %s is no longer valid, asking for consent again\n", store)
	}

	tok, err := flow.authorize(ctx, conf)
	if err != nil {
		return nil, err
	}
	store.saveOrWarn(tok, flow.out)
	return tok, nil
}

// tokenFile is a JSON file holding one OAuth token, readable only by the owner
type tokenFile string

func (f tokenFile) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", f, err)
	}
	return tok, nil
}

func (f tokenFile) save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(string(f)); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return os.WriteFile(string(f), data, 0600)
}

func (f tokenFile) saveOrWarn(tok *oauth2.Token, out io.Writer) {
	if err := f.save(tok); err != nil {
		fmt.Fprintf(out, "Warning: couldn't save token to %s: %v\n", f, err)
	}
}

// savingTokenSource writes every refreshed token back to the token file so a
// restart of a long running server does not need a new consent
type savingTokenSource struct {
	base oauth2.TokenSource
	file tokenFile
	out  io.Writer

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		s.file.saveOrWarn(tok, s.out)
	}
	return tok, nil
}

const consentPage = `<html><body><h1>match-highlights is authorized</h1><p>You can close this window and return to the terminal.</p></body></html>`

// consent runs the installed app authorization code flow with a loopback
// redirect
type consent struct {
	port        int
	out         io.Writer
	openBrowser func(url string) error
}

type callbackResult struct {
	code string
	err  error
}

func (c consent) authorize(ctx context.Context, base *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", c.port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for the OAuth callback: %w", err)
	}

	conf := *base
	conf.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr())
	state := uuid.NewString()

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		res := readCallback(r, state)
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprint(w, consentPage)
		}
		select {
		case results <- res:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go server.Serve(ln)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(c.out, "\nAuthorize match-highlights to use Google Drive by visiting:\n\n%s\n\n", authURL)
	if err := c.openBrowser(authURL); err != nil {
		fmt.Fprintf(c.out, "Could not open a browser (%v), open the URL manually\n", err)
	}

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := conf.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("unable to exchange auth code: %w", err)
		}
		fmt.Fprintln(c.out, "Authentication successful!")
		return tok, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func readCallback(r *http.Request, state string) callbackResult {
	q := r.URL.Query()
	switch {
	case q.Get("state") != state:
		return callbackResult{err: errors.New("OAuth callback state mismatch")}
	case q.Get("error") != "":
		return callbackResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))}
	case q.Get("code") == "":
		return callbackResult{err: errors.New("no code in OAuth callback")}
	}
	return callbackResult{code: q.Get("code")}
}

// browserCommand picks the program that opens a URL on goos
func browserCommand(goos string, lookPath func(string) (string, error)) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", nil, nil
	case "windows":
		return "cmd", []string{"/c", "start"}, nil
	case "linux":
		for _, name := range []string{"xdg-open", "wslview"} {
			if _, err := lookPath(name); err == nil {
				return name, nil, nil
			}
		}
		return "cmd.exe", []string{"/c", "start"}, nil
	default:
		return "", nil, fmt.Errorf("no browser opener for %s", goos)
	}
}

func openBrowser(url string) error {
	name, args, err := browserCommand(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}
	return exec.Command(name, append(args, url)...).Start()
}
