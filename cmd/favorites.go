package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sopsmith/internal/configs"
	"github.com/PolarWolf314/sopsmith/internal/ui"
)

func init() {
	FavoritesCmd.AddCommand(favoritesListCmd)
	FavoritesCmd.AddCommand(favoritesAddCmd)
	FavoritesCmd.AddCommand(favoritesRemoveCmd)
}

// FavoritesCmd groups the commands managing favorite documents.
var FavoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage your favorite documents",
	Long: `Keeps a list of documents you open often. Any command taking a file
accepts @n for the n-th favorite, as numbered by "sopsmith favorites list".

Favorites are stored as absolute paths in your sopsmith configuration.`,
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your favorite documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := configs.LoadConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		if len(config.Favorites) == 0 {
			fmt.Println("No favorites yet.")
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sopsmith favorites add <file>") + " to add one")
			return nil
		}

		rows := make([][]string, 0, len(config.Favorites))
		for i, path := range config.Favorites {
			state := ""
			if _, err := os.Stat(path); err != nil {
				state = "missing"
			}
			rows = append(rows, []string{"@" + strconv.Itoa(i+1), path, state})
		}
		fmt.Print(ui.Columns(rows, func(col int, cell string) string {
			switch col {
			case 1:
				return ui.Path.Sprint(cell)
			case 2:
				return ui.Warning.Sprint(cell)
			default:
				return cell
			}
		}))
		return nil
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Add documents to your favorites",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := configs.LoadConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		for _, path := range args {
			if _, err := os.Stat(path); err != nil {
				Logger.WarnfAlways("%s does not exist yet", path)
			}
			if config.AddFavorite(path) {
				fmt.Println(ui.Success.Sprint("✓") + " Added " + ui.Path.Sprint(path))
			} else {
				fmt.Println(ui.Info.Sprint("ℹ") + " " + ui.Path.Sprint(path) + " is already a favorite")
			}
		}
		return saveFavorites(config)
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <file|@n>...",
	Short: "Remove documents from your favorites",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := configs.LoadConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		// Resolve every @n before removing, so indexes refer to the list as shown.
		paths := make([]string, 0, len(args))
		for _, arg := range args {
			path, err := resolveDocument(arg, config)
			if err != nil {
				return report(err)
			}
			paths = append(paths, path)
		}

		for _, path := range paths {
			if config.RemoveFavorite(path) {
				fmt.Println(ui.Success.Sprint("✓") + " Removed " + ui.Path.Sprint(path))
			} else {
				fmt.Println(ui.Info.Sprint("ℹ") + " " + ui.Path.Sprint(path) + " is not a favorite")
			}
		}
		return saveFavorites(config)
	},
}

func saveFavorites(config *configs.Config) error {
	if err := configs.SaveConfig(config); err != nil {
		return Logger.ErrorfAndReturn("failed to save configuration: %v", err)
	}
	Logger.Debugf("Saved favorites to %s", configs.UserSettings.ConfigPath)
	return nil
}
