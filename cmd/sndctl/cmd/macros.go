package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/sndctl/internal/macro"
	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/services"
)

var (
	listCategory string
	importMerge  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored macros",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMacros(func(svc *services.MacroService) error {
			macros := svc.List()
			if listCategory != "" {
				filtered := macros[:0]
				for _, m := range macros {
					if strings.EqualFold(m.Category, listCategory) {
						filtered = append(filtered, m)
					}
				}
				macros = filtered
			}
			printTable(macros)
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search macro names, descriptions and categories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMacros(func(svc *services.MacroService) error {
			printTable(svc.Search(strings.Join(args, " ")))
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one macro in document form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMacros(func(svc *services.MacroService) error {
			m, err := svc.Get(args[0])
			if err != nil {
				return notFound(svc, args[0], err)
			}
			fmt.Print(macro.Format([]models.Macro{m}))
			return nil
		})
	},
}

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <name>",
	Short: "Copy a macro under the next free name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMacros(func(svc *services.MacroService) error {
			clone, err := svc.Duplicate(args[0])
			if err != nil {
				return notFound(svc, args[0], err)
			}
			fmt.Printf("Created %s\n", clone.Name)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a macro",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMacros(func(svc *services.MacroService) error {
			deleted, err := svc.Delete(args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return notFound(svc, args[0], macro.ErrNotFound)
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the macro document to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMacros(func(svc *services.MacroService) error {
			content := svc.RawContent()
			if len(args) == 0 {
				fmt.Print(content)
				return nil
			}
			return os.WriteFile(args[0], []byte(content), 0600)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace or merge macros from a document",
	Long: `Imports a macro document. By default the stored collection is
replaced by the file as-is; with --merge, macros from the file are added
or replace same-named ones.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return withMacros(func(svc *services.MacroService) error {
			outcome, err := svc.Import(string(content), importMerge)
			if err != nil {
				return errors.New(outcome.Message)
			}
			fmt.Println(outcome.Message)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd, searchCmd, showCmd, duplicateCmd, deleteCmd, exportCmd, importCmd)

	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "only macros in this category")
	importCmd.Flags().BoolVar(&importMerge, "merge", false, "merge into the stored macros instead of replacing them")
}

func withMacros(fn func(svc *services.MacroService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, release, err := openMacros(cfg)
	if err != nil {
		printError("open macros", err)
		return err
	}
	defer release()
	return fn(svc)
}

// notFound adds "did you mean" suggestions to a missing macro error.
func notFound(svc *services.MacroService, name string, err error) error {
	if !errors.Is(err, macro.ErrNotFound) {
		return err
	}
	if suggestions := svc.Suggest(name, 3); len(suggestions) > 0 {
		return fmt.Errorf("macro %q not found (did you mean %s?)", name, strings.Join(suggestions, ", "))
	}
	return fmt.Errorf("macro %q not found", name)
}

func printTable(macros []models.Macro) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tARGS\tCATEGORY\tDESCRIPTION")
	for _, m := range macros {
		name := m.Name
		if m.Favorite {
			name += " *"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", name, macro.ArgumentCount(m.Body), m.Category, m.Description)
	}
	_ = w.Flush()
}
