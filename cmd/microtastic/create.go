package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/seriva/microtastic/internal/config"
	"github.com/seriva/microtastic/internal/errors"
)

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new project",
		Long: `Create a new project with the specified name.

The scaffold contains app.json, an index.html and a small reactive
starter app under src/.

Examples:
  microtastic create my-app`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args[0])
		},
	}
	return cmd
}

var validName = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

func runCreate(name string) error {
	printBanner()
	fmt.Println("  Creating a new project...")
	fmt.Println()

	if !validName.MatchString(name) {
		return errors.Newf(errors.CategoryCLI, "invalid project name %q", name).
			WithSuggestion("Use lowercase letters, numbers, and hyphens")
	}

	projectDir, err := filepath.Abs(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(projectDir); !os.IsNotExist(err) {
		return errors.New("E180").
			WithDetail("Directory '" + name + "' already exists")
	}

	if err := scaffold(projectDir, name); err != nil {
		return err
	}

	success("Created %s", name)
	info("")
	info("Next steps:")
	info("  cd %s", name)
	info("  microtastic dev")
	return nil
}

func scaffold(dir, name string) error {
	srcDir := filepath.Join(dir, config.DefaultSrc)
	if err := os.MkdirAll(srcDir, 0755); err != nil {
		return err
	}

	cfg := config.New()
	cfg.Name = name
	if err := cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		return err
	}

	files := map[string]string{
		"index.html": fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>%s</title>
  <link rel="stylesheet" href="style.css">
</head>
<body>
  <div id="app">
    <h1 data-text="title"></h1>
    <p>Count: <span data-text="count"></span></p>
    <button data-on-click="increment">+1</button>
  </div>
  <script type="module" src="main.js"></script>
</body>
</html>
`, name),
		"main.js": fmt.Sprintf(`const state = {
  title: "%s",
  count: 0,
};

// Starter logic; replace with your app.
document.querySelectorAll("[data-text]").forEach((el) => {
  el.textContent = state[el.dataset.text];
});
document.querySelector("[data-on-click]").addEventListener("click", () => {
  state.count += 1;
  document.querySelector('[data-text="count"]').textContent = state.count;
});
`, name),
		"style.css": `body {
  font-family: system-ui, sans-serif;
  max-width: 40rem;
  margin: 4rem auto;
}
`,
	}
	for rel, content := range files {
		if err := os.WriteFile(filepath.Join(srcDir, rel), []byte(content), 0644); err != nil {
			return err
		}
		info("created %s", filepath.Join(config.DefaultSrc, rel))
	}
	return nil
}
