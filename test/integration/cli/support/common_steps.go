package support

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/notescan/cmd/notescan/cmd"
	"github.com/cucumber/godog"
)

// splitArgs splits a command line on spaces, keeping double-quoted parts together.
func splitArgs(command string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range command {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case r == ' ' && !inQuote:
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}

// iRunCommand executes a notescan command line in-process.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substitute(command)
	testCtx.LastCommand = command

	args, err := splitArgs(command)
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] != "notescan" {
		return fmt.Errorf("only notescan commands can be run, got %q", command)
	}

	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args[1:])

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	start := time.Now()
	err = root.ExecuteContext(ctx)
	testCtx.LastDuration = time.Since(start)
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err
	testCtx.LastExitCode = 0
	if err != nil {
		testCtx.LastExitCode = 1
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed: %w\nOutput: %s\nStderr: %s",
			testCtx.LastError, testCtx.LastOutput, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expected string) error {
	expected = testCtx.substitute(expected)
	if !strings.Contains(testCtx.LastOutput, expected) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expected, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(unexpected string) error {
	if strings.Contains(testCtx.LastOutput, unexpected) {
		return fmt.Errorf("output contains '%s'\nActual output: %s", unexpected, testCtx.LastOutput)
	}
	return nil
}

// theErrorShouldMention checks the returned error and stderr, case-insensitively.
func (testCtx *TestContext) theErrorShouldMention(text string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", text)
	}
	full := testCtx.LastError.Error() + " " + testCtx.LastStderr + " " + testCtx.LastOutput
	if !strings.Contains(strings.ToLower(full), strings.ToLower(text)) {
		return fmt.Errorf("error does not contain '%s'\nActual error: %s", text, full)
	}
	return nil
}

func (testCtx *TestContext) lastJSON() (any, error) {
	var v any
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &v); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	return v, nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := testCtx.lastJSON()
	return err
}

// lookup walks a dotted path; numeric parts index arrays.
func lookup(v any, path string) (any, error) {
	cur := v
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field '%s' not found", path)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index '%s' invalid in '%s'", part, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot navigate into '%s'", path)
		}
	}
	return cur, nil
}

func (testCtx *TestContext) theJSONShouldContain(field string) error {
	v, err := testCtx.lastJSON()
	if err != nil {
		return err
	}
	_, err = lookup(v, field)
	return err
}

// theJSONFieldShouldBe compares the JSON rendering of a field with want.
func (testCtx *TestContext) theJSONFieldShouldBe(field, want string) error {
	v, err := testCtx.lastJSON()
	if err != nil {
		return err
	}
	got, err := lookup(v, field)
	if err != nil {
		return err
	}
	var s string
	if str, ok := got.(string); ok {
		s = str
	} else {
		b, _ := json.Marshal(got)
		s = string(b)
	}
	if s != testCtx.substitute(want) {
		return fmt.Errorf("field '%s' is %s, want %s", field, s, want)
	}
	return nil
}

func (testCtx *TestContext) theJSONArrayShouldHaveItems(field string, n int) error {
	v, err := testCtx.lastJSON()
	if err != nil {
		return err
	}
	got, err := lookup(v, field)
	if err != nil {
		return err
	}
	arr, ok := got.([]any)
	if !ok {
		return fmt.Errorf("field '%s' is not an array", field)
	}
	if len(arr) != n {
		return fmt.Errorf("field '%s' has %d items, want %d", field, len(arr), n)
	}
	return nil
}

// jsonLines parses line-delimited JSON output.
func (testCtx *TestContext) jsonLines() ([]map[string]any, error) {
	var lines []map[string]any
	sc := bufio.NewScanner(strings.NewReader(testCtx.LastOutput))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			return nil, fmt.Errorf("invalid JSON line %q: %w", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	return lines, sc.Err()
}

func (testCtx *TestContext) theOutputShouldHaveJSONLines(n int) error {
	lines, err := testCtx.jsonLines()
	if err != nil {
		return err
	}
	if len(lines) != n {
		return fmt.Errorf("got %d JSON lines, want %d\nOutput: %s", len(lines), n, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) everyJSONLineShouldContain(field string) error {
	lines, err := testCtx.jsonLines()
	if err != nil {
		return err
	}
	for i, l := range lines {
		if _, err := lookup(l, field); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	path := testCtx.Path(testCtx.substitute(name))
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file does not exist: %s", path)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, expected string) error {
	path := testCtx.Path(testCtx.substitute(name))
	content, err := os.ReadFile(path) //nolint:gosec // G304: scenario temp file
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if !strings.Contains(string(content), expected) {
		return fmt.Errorf("file %s does not contain '%s'\nActual content: %s", name, expected, content)
	}
	return nil
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	testCtx.SetEnv(name, testCtx.substitute(value))
	return nil
}

func (testCtx *TestContext) aConfigFileWith(name string, body *godog.DocString) error {
	return os.WriteFile(testCtx.Path(name), []byte(body.Content), 0o600)
}

func (testCtx *TestContext) theHelpShouldListSubcommands() error {
	for _, c := range []string{"scan", "detect", "replay", "config", "version"} {
		if !strings.Contains(testCtx.LastOutput, c) {
			return fmt.Errorf("help does not list '%s'\nOutput: %s", c, testCtx.LastOutput)
		}
	}
	return nil
}

// RegisterCommonSteps registers command, output, file and config steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^I run '([^']*)'$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON should contain "([^"]*)"$`, testCtx.theJSONShouldContain)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the JSON array "([^"]*)" should have (\d+) items?$`, testCtx.theJSONArrayShouldHaveItems)
	sc.Step(`^the output should have (\d+) JSON lines?$`, testCtx.theOutputShouldHaveJSONLines)
	sc.Step(`^every JSON line should contain "([^"]*)"$`, testCtx.everyJSONLineShouldContain)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the help should list all available subcommands$`, testCtx.theHelpShouldListSubcommands)

	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
	sc.Step(`^a config file "([^"]*)" with:$`, testCtx.aConfigFileWith)
}
