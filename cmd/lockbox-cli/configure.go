package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/lockbox/clientcli"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage saved server profiles.

A profile stores a server endpoint and, optionally, a default item password.
Select one with --profile or LOCKBOX_PROFILE; otherwise the default profile
is used. Profiles are kept in ~/.lockbox/config.yaml unless --config or
LOCKBOX_CLI_CONFIG points elsewhere.`,
}

var configureListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles (default marked with *)",
	RunE:    runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a profile",
	Long: `Add or update a profile.

Values given with --endpoint and --password are used as is; anything
missing is prompted for. The endpoint is checked for reachability before saving.`,
	Example: `  lockbox-cli configure add home
  lockbox-cli configure add work -e https://box.example --default --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a profile (the default one without a name)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigureShow,
}

var (
	showSecrets  bool
	makeDefault  bool
	assumeYes    bool
	reachTimeout = 5 * time.Second
)

func init() {
	configureCmd.AddCommand(configureListCmd, configureAddCmd, configureRemoveCmd,
		configureSetDefaultCmd, configureShowCmd)

	for _, c := range []*cobra.Command{configureListCmd, configureShowCmd} {
		c.Flags().BoolVar(&showSecrets, "show-secrets", false, "print stored passwords")
	}
	configureAddCmd.Flags().BoolVar(&makeDefault, "default", false, "make this the default profile")
	for _, c := range []*cobra.Command{configureAddCmd, configureRemoveCmd} {
		c.Flags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to every confirmation")
	}
}

// profiles is the loaded config file and where it is saved.
type profiles struct {
	path string
	file *clientcli.ConfigFile
}

// loadProfiles reads the config file. With mustExist unset a missing file
// loads as empty.
func loadProfiles(mustExist bool) (*profiles, error) {
	path := getConfigPath()
	load := clientcli.LoadOrEmpty
	if mustExist {
		load = clientcli.LoadConfigFile
	}
	file, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &profiles{path: path, file: file}, nil
}

func (p *profiles) save() error {
	if err := p.file.Save(p.path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// errCancelled ends a command quietly after the user declines a prompt.
var errCancelled = errors.New("cancelled")

// confirm asks a yes/no question. Declining returns errCancelled.
func confirm(label string) error {
	if assumeYes {
		return nil
	}
	_, err := (&promptui.Prompt{Label: label, IsConfirm: true}).Run()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrAbort):
		return errCancelled
	default:
		return err
	}
}

// ask prompts for a value and validates it.
func ask(prompt promptui.Prompt) (string, error) {
	v, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return "", errCancelled
	}
	return v, err
}

// cancelled maps errCancelled to a clean exit.
func cancelled(err error) error {
	if errors.Is(err, errCancelled) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}

func runConfigureList(_ *cobra.Command, _ []string) error {
	p, err := loadProfiles(false)
	if err != nil {
		return err
	}
	if len(p.file.Profiles) == 0 {
		fmt.Println("No profiles configured. Create one with 'lockbox-cli configure add <name>'.")
		return nil
	}
	return getFormatter().FormatProfileList(os.Stdout, p.file.Profiles, p.file.DefaultName(), showSecrets)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	return cancelled(addProfile(cmd.Context(), args[0]))
}

func addProfile(ctx context.Context, name string) error {
	p, err := loadProfiles(false)
	if err != nil {
		return err
	}

	existing, _ := p.file.GetProfile(name)
	if existing != nil {
		if err := confirm(fmt.Sprintf("Profile '%s' exists. Overwrite", name)); err != nil {
			return err
		}
	}

	next := clientcli.Profile{Name: name, Endpoint: endpoint, Password: password, Default: makeDefault}
	if existing != nil {
		next.Default = next.Default || existing.Default
	}

	if next.Endpoint == "" {
		next.Endpoint, err = ask(promptui.Prompt{
			Label:   "Endpoint URL",
			Default: clientcli.DefaultEndpoint,
			Validate: func(in string) error {
				return clientcli.Profile{Name: name, Endpoint: in}.Validate()
			},
		})
		if err != nil {
			return err
		}
	}

	if next.Password == "" && !assumeYes {
		next.Password, err = ask(promptui.Prompt{
			Label: "Default item password (empty for none)",
			Mask:  '*',
			Validate: func(in string) error {
				if len(in) > 72 {
					return errors.New("password must be at most 72 bytes")
				}
				return nil
			},
		})
		if err != nil {
			return err
		}
	}

	if !next.Default && len(p.file.Profiles) > 0 && !assumeYes {
		next.Default = confirm("Make this the default profile") == nil
	}

	fmt.Print("Checking endpoint... ")
	if err := reachable(ctx, next.Endpoint); err != nil {
		fmt.Printf("unreachable (%v)\n", err)
		if err := confirm("Save anyway"); err != nil {
			return err
		}
	} else {
		fmt.Println("ok")
	}

	added, err := p.file.SetProfile(next)
	if err != nil {
		return err
	}
	if err := p.save(); err != nil {
		return err
	}

	verb := "updated"
	if added {
		verb = "added"
	}
	fmt.Printf("Profile '%s' %s", name, verb)
	if p.file.DefaultName() == name {
		fmt.Print(" (default)")
	}
	fmt.Println(".")
	return nil
}

func runConfigureRemove(_ *cobra.Command, args []string) error {
	name := args[0]
	p, err := loadProfiles(true)
	if err != nil {
		return err
	}
	if _, err := p.file.GetProfile(name); err != nil {
		return err
	}
	if err := confirm(fmt.Sprintf("Remove profile '%s'", name)); err != nil {
		return cancelled(err)
	}
	if err := p.file.RemoveProfile(name); err != nil {
		return err
	}
	if err := p.save(); err != nil {
		return err
	}
	fmt.Printf("Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(_ *cobra.Command, args []string) error {
	p, err := loadProfiles(true)
	if err != nil {
		return err
	}
	if err := p.file.SetDefault(args[0]); err != nil {
		return err
	}
	if err := p.save(); err != nil {
		return err
	}
	fmt.Printf("Default profile is now '%s'.\n", args[0])
	return nil
}

func runConfigureShow(_ *cobra.Command, args []string) error {
	p, err := loadProfiles(true)
	if err != nil {
		return err
	}
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	prof, err := p.file.GetProfile(name)
	if err != nil {
		return err
	}
	return getFormatter().FormatProfileShow(os.Stdout, *prof, prof.Name == p.file.DefaultName(), showSecrets)
}

// reachable reports whether anything answers HTTP at endpoint. Any status
// counts since the landing page answers every path.
func reachable(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, reachTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
