package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"coinwatch/internal/config"
)

func testCommand(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("json", false, "")
	cmd.SetOut(buf)
	return cmd
}

func TestAppOutputHonorsColorSetting(t *testing.T) {
	var buf bytes.Buffer
	cmd := testCommand(&buf)

	app := &App{Config: config.Default()}
	app.Config.UI.ColorEnabled = false

	o := app.Output(cmd)
	if o.colorEnabled {
		t.Error("color enabled despite ui.color_enabled = false")
	}
	if got := o.FormatPercent(1.23); got != "+1.23%" {
		t.Errorf("FormatPercent = %q, want plain %q", got, "+1.23%")
	}
}

func TestAppOutputJSONModeDisablesColor(t *testing.T) {
	var buf bytes.Buffer
	cmd := testCommand(&buf)
	if err := cmd.Flags().Set("json", "true"); err != nil {
		t.Fatalf("setting json flag: %v", err)
	}

	app := &App{Config: config.Default()}
	o := app.Output(cmd)
	if !o.IsJSON() {
		t.Error("json flag not picked up")
	}
	if o.colorEnabled {
		t.Error("color enabled in JSON mode")
	}
}
