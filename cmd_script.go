package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/amidaware/schedctl/console/forms"
	"github.com/amidaware/schedctl/console/guard"
	"github.com/amidaware/schedctl/console/render"
	"github.com/amidaware/schedctl/shared"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var scriptCmd = guard.Annotate(&cobra.Command{
	Use:     "script",
	Aliases: []string{"scripts"},
	Short:   "Manage scripts",
}, guard.Dashboard)

var scriptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scripts",
	Args:  cobra.NoArgs,
	RunE:  runScriptList,
}

var scriptShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a script and its next runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runScriptShow,
}

var scriptCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a script",
	Long: `Create a script. The content is read from --file, or from stdin when
--file is "-". Leave --schedule empty for a manual only script.

Examples:
  schedctl script create --name backup --schedule "0 3 * * *" -f backup.sh
  echo 'print("hi")' | schedctl script create --name hi --type python -f -`,
	Args: cobra.NoArgs,
	RunE: runScriptCreate,
}

var scriptEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Replace fields of a script, unset flags keep their value",
	Args:  cobra.ExactArgs(1),
	RunE:  runScriptEdit,
}

var scriptDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a script",
	Args:  cobra.ExactArgs(1),
	RunE:  runScriptDelete,
}

var scriptRunCmd = &cobra.Command{
	Use:   "run ID",
	Short: "Run a script now",
	Args:  cobra.ExactArgs(1),
	RunE:  runScriptRun,
}

func scriptFlags(fs *pflag.FlagSet) {
	fs.String("name", "", "Script name")
	fs.String("type", string(shared.ScriptShell), "Script type: shell, python or nodejs")
	fs.String("schedule", "", "Cron expression, empty for manual only")
	fs.StringP("file", "f", "", "Read content from file, - for stdin")
	fs.String("content", "", "Script content")
	fs.Bool("lint", false, "Check syntax locally before saving")
}

func init() {
	scriptFlags(scriptCreateCmd.Flags())
	scriptFlags(scriptEditCmd.Flags())
	scriptShowCmd.Flags().Int("next", 3, "How many upcoming runs to preview")

	scriptCmd.AddCommand(scriptListCmd, scriptShowCmd, scriptCreateCmd, scriptEditCmd, scriptDeleteCmd, scriptRunCmd, applyCmd)
	rootCmd.AddCommand(scriptCmd)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func runScriptList(cmd *cobra.Command, args []string) error {
	if err := cons.Dashboard.FetchScripts(cmd.Context()); err != nil {
		return err
	}
	return render.Scripts(cmd.OutOrStdout(), cons.Dashboard.State().Scripts, time.Now())
}

func runScriptShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	script, err := cons.API.GetScript(cmd.Context(), id).Unwrap()
	if err != nil {
		cons.Notifier.Error(err.Error())
		return err
	}

	now := time.Now()
	var next []time.Time
	if !script.Manual() {
		n, _ := cmd.Flags().GetInt("next")
		next, err = forms.NextRuns(script.Schedule, now, n)
		if err != nil {
			log.Warnln(err)
		}
	}
	return render.Script(cmd.OutOrStdout(), script, next, now)
}

// applyScriptFlags copies the flags the user set onto form
func applyScriptFlags(cmd *cobra.Command, form *forms.ScriptForm) error {
	fs := cmd.Flags()
	if fs.Changed("name") {
		form.Values.Name, _ = fs.GetString("name")
	}
	if fs.Changed("type") || !form.Editing() {
		t, _ := fs.GetString("type")
		form.Values.Type = shared.ScriptType(t)
	}
	if fs.Changed("schedule") {
		form.Values.Schedule, _ = fs.GetString("schedule")
	}
	if fs.Changed("content") {
		form.Values.Content, _ = fs.GetString("content")
	}
	if fs.Changed("file") {
		file, _ := fs.GetString("file")
		content, err := readContent(cmd, file)
		if err != nil {
			return err
		}
		form.Values.Content = content
	}
	return nil
}

func readContent(cmd *cobra.Command, file string) (string, error) {
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return string(data), nil
}

func lintScript(cmd *cobra.Command, script shared.Script) error {
	if lint, _ := cmd.Flags().GetBool("lint"); !lint {
		return nil
	}
	res, err := cons.Linter.Check(cmd.Context(), script)
	if err != nil {
		return err
	}
	if !res.OK {
		fmt.Fprintln(cmd.ErrOrStderr(), res.Output)
		return fmt.Errorf("syntax check failed for %s", script.Name)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Syntax OK\n")
	return nil
}

func submitScript(cmd *cobra.Command, form *forms.ScriptForm) error {
	log.Debugln(form.Title())
	// the command ends here either way, a failed submit must not leave the dialog open
	defer cons.Dashboard.CloseDialog()
	return form.Submit(func(s shared.Script) error {
		if err := lintScript(cmd, s); err != nil {
			return err
		}
		return cons.Dashboard.SaveScript(cmd.Context(), s)
	})
}

func runScriptCreate(cmd *cobra.Command, args []string) error {
	form := forms.NewScriptForm(nil)
	if err := applyScriptFlags(cmd, form); err != nil {
		return err
	}
	cons.Dashboard.OpenCreate()
	return submitScript(cmd, form)
}

func runScriptEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	script, err := cons.API.GetScript(cmd.Context(), id).Unwrap()
	if err != nil {
		cons.Notifier.Error(err.Error())
		return err
	}

	form := forms.NewScriptForm(&script)
	if err := applyScriptFlags(cmd, form); err != nil {
		return err
	}
	cons.Dashboard.OpenEdit(script)
	return submitScript(cmd, form)
}

func runScriptDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return cons.Dashboard.DeleteScript(cmd.Context(), id)
}

func runScriptRun(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return cons.Dashboard.RunScript(cmd.Context(), id)
}
