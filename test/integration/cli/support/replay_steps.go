package support

import (
	"errors"
	"fmt"
	"os"

	"github.com/cucumber/godog"
)

// theReplayShouldReachAStableDocument checks that some result line is stable.
func (testCtx *TestContext) theReplayShouldReachAStableDocument() error {
	lines, err := testCtx.jsonLines()
	if err != nil {
		return err
	}
	for _, l := range lines {
		if v, err := lookup(l, "result.stable"); err == nil && v == true {
			return nil
		}
	}
	return fmt.Errorf("no stable result in %d lines", len(lines))
}

// aCaptureShouldHaveBeenSaved checks the capture line and its output file.
func (testCtx *TestContext) aCaptureShouldHaveBeenSaved() error {
	lines, err := testCtx.jsonLines()
	if err != nil {
		return err
	}
	for _, l := range lines {
		capture, ok := l["capture"].(map[string]any)
		if !ok {
			continue
		}
		if capture["success"] != true {
			return fmt.Errorf("capture failed: %v", capture["error"])
		}
		out, _ := l["output"].(string)
		if _, err := os.Stat(out); err != nil {
			return fmt.Errorf("capture output %q missing: %w", out, err)
		}
		return nil
	}
	return errors.New("no capture line in output")
}

// RegisterReplaySteps registers steps that inspect replay output.
func (testCtx *TestContext) RegisterReplaySteps(sc *godog.ScenarioContext) {
	sc.Step(`^the replay should reach a stable document$`, testCtx.theReplayShouldReachAStableDocument)
	sc.Step(`^a capture should have been saved$`, testCtx.aCaptureShouldHaveBeenSaved)
}
