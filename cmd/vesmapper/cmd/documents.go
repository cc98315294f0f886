package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/vesmapper/internal/rules"
	"github.com/solatis/vesmapper/internal/types"
)

var (
	validateJSON bool
	outputFile   string
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Validate a mapping-rules document",
	Long:  `Reports every diagnostic of the document. The VES schema check runs when a catalog is configured.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var translateCmd = &cobra.Command{
	Use:   "translate FILE",
	Short: "Translate a valid mapping-rules document into a pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranslate,
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Validate a document against the catalog and assign fresh rule UIDs",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(validateCmd, translateCmd, importCmd)
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print diagnostics as JSON")
	for _, c := range []*cobra.Command{translateCmd, importCmd} {
		c.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")
	}
}

// readDocument decodes the document at path; "-" reads stdin.
func readDocument(cmd *cobra.Command, path string) (*types.MappingRules, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(cmd.InOrStdin(), types.MaxDocumentSize+1))
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := types.DecodeMappingRules(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc, nil
}

func writeOutput(cmd *cobra.Command, data []byte) error {
	data = append(data, '\n')
	if outputFile == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(outputFile, data, 0o644)
}

func printDiagnostics(w io.Writer, diags *rules.Diagnostics, asJSON bool) error {
	if asJSON {
		items := diags.Items
		if items == nil {
			items = []rules.Diagnostic{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	for _, d := range diags.Items {
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return err
		}
	}
	return nil
}

// reportInvalid prints the diagnostics of an invalid-document error to
// stderr. It returns err, joined with the print failure if there is one.
func reportInvalid(cmd *cobra.Command, err error) error {
	var invalid *rules.InvalidDocumentError
	if !errors.As(err, &invalid) {
		return err
	}
	if perr := printDiagnostics(cmd.ErrOrStderr(), invalid.Diagnostics, false); perr != nil {
		return errors.Join(err, fmt.Errorf("failed to print diagnostics: %w", perr))
	}
	return err
}

func runValidate(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd, args[0])
	if err != nil {
		return err
	}

	provider, closeCatalog, err := env.openCatalog(false)
	if err != nil {
		return err
	}
	defer closeCatalog()

	var vesCatalog types.VESCatalog
	if provider != nil {
		if vesCatalog, err = provider.AvailableVersionsAndEventTypes(cmd.Context()); err != nil {
			return err
		}
	} else {
		env.logger.Warn("no catalog configured, skipping VES schema check")
	}

	diags, err := env.engine.Validate(doc, vesCatalog)
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd.OutOrStdout(), diags, validateJSON); err != nil {
		return err
	}
	if diags.Len() > 0 {
		return fmt.Errorf("%w: %d diagnostics", types.ErrInvalidDocument, diags.Len())
	}
	return nil
}

func runTranslate(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd, args[0])
	if err != nil {
		return err
	}

	pipeline, err := env.engine.Translate(doc)
	if err != nil {
		return reportInvalid(cmd, err)
	}

	out, err := json.Marshal(pipeline)
	if err != nil {
		return fmt.Errorf("failed to encode pipeline: %w", err)
	}
	return writeOutput(cmd, out)
}

func runImport(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(cmd, args[0])
	if err != nil {
		return err
	}

	provider, closeCatalog, err := env.openCatalog(true)
	if err != nil {
		return err
	}
	defer closeCatalog()

	vesCatalog, err := provider.AvailableVersionsAndEventTypes(cmd.Context())
	if err != nil {
		return err
	}

	imported, err := env.engine.Import(doc, vesCatalog)
	if err != nil {
		return reportInvalid(cmd, err)
	}

	out, err := json.Marshal(imported)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return writeOutput(cmd, out)
}
