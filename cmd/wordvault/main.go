package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wordvault/wordvault/pkg/core"
	"github.com/wordvault/wordvault/pkg/vault"
)

var (
	configPath string
	profileDir string
	profile    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "wordvault",
	Short: "CLI tool for the local vocabulary store",
	Long:  `A command-line interface for managing per-profile vocabulary stores backed by SQLite.`,
}

var addCmd = &cobra.Command{
	Use:   "add <word>",
	Short: "Add or update a word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("desc")
		details, _ := cmd.Flags().GetString("details")
		tags, _ := cmd.Flags().GetStringSlice("tags")
		synonyms, _ := cmd.Flags().GetStringSlice("synonyms")
		antonyms, _ := cmd.Flags().GetStringSlice("antonyms")
		remark, _ := cmd.Flags().GetString("remark")
		vectorStr, _ := cmd.Flags().GetString("vector")

		data := core.WordData{
			Word:        args[0],
			OneLineDesc: desc,
			Details:     details,
			Tags:        tags,
			Synonyms:    synonyms,
			Antonyms:    antonyms,
			Remark:      remark,
		}

		db, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		var doc *core.WordDocument
		if vectorStr != "" {
			vector, err := parseVector(vectorStr)
			if err != nil {
				return err
			}
			doc, err = db.AddOrUpdateWordWithEmbedding(ctx, data, vector)
			if err != nil {
				return fmt.Errorf("failed to add word with embedding: %w", err)
			}
		} else {
			doc, err = db.AddOrUpdateWord(ctx, data)
			if err != nil {
				return fmt.Errorf("failed to add word: %w", err)
			}
		}

		fmt.Printf("Word '%s' saved (id %s)\n", doc.Word, doc.ID)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <word>",
	Short: "Get a word by name or id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		byID, _ := cmd.Flags().GetBool("id")

		db, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		var doc *core.WordDocument
		if byID {
			doc, err = db.GetWord(ctx, args[0])
		} else {
			doc, err = db.GetWordByName(ctx, args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get word: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(doc, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Word: %s\n", doc.Word)
		fmt.Printf("ID: %s\n", doc.ID)
		fmt.Printf("Description: %s\n", doc.OneLineDesc)
		if doc.Details != "" {
			fmt.Printf("Details: %s\n", doc.Details)
		}
		if len(doc.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(doc.Tags, ", "))
		}
		if len(doc.Synonyms) > 0 {
			fmt.Printf("Synonyms: %s\n", strings.Join(doc.Synonyms, ", "))
		}
		if len(doc.Antonyms) > 0 {
			fmt.Printf("Antonyms: %s\n", strings.Join(doc.Antonyms, ", "))
		}
		if doc.Remark != "" {
			fmt.Printf("Remark: %s\n", doc.Remark)
		}
		fmt.Printf("Created: %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated: %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List words in chronological order",
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetInt("offset")
		limit, _ := cmd.Flags().GetInt("limit")
		desc, _ := cmd.Flags().GetBool("desc")

		order := core.OrderAsc
		if desc {
			order = core.OrderDesc
		}

		db, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		page, err := db.ListWordsPaginated(ctx, offset, limit, order)
		if err != nil {
			return fmt.Errorf("failed to list words: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(page, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Words %d-%d of %d:\n", offset+1, offset+len(page.Items), page.Total)
		for _, item := range page.Items {
			line := fmt.Sprintf("  %s - %s", item.Word, item.OneLineDesc)
			if len(item.Tags) > 0 {
				line += fmt.Sprintf(" [%s]", strings.Join(item.Tags, ", "))
			}
			fmt.Println(line)
		}
		if page.HasMore {
			fmt.Printf("(more results, use --offset %d)\n", offset+len(page.Items))
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search words by text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetInt("offset")
		limit, _ := cmd.Flags().GetInt("limit")

		db, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		page, err := db.SearchWords(ctx, args[0], offset, limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(page, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Found %d results:\n", page.Total)
		for i, item := range page.Items {
			fmt.Printf("%d. %s - %s\n", offset+i+1, item.Word, item.OneLineDesc)
		}
		return nil
	},
}

var semanticCmd = &cobra.Command{
	Use:   "semantic",
	Short: "Search words by vector similarity",
	RunE: func(cmd *cobra.Command, args []string) error {
		vectorStr, _ := cmd.Flags().GetString("vector")
		k, _ := cmd.Flags().GetInt("top-k")

		vector, err := parseVector(vectorStr)
		if err != nil {
			return err
		}

		db, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		matches, err := db.SemanticSearch(ctx, vector, k)
		if err != nil {
			return fmt.Errorf("semantic search failed: %w", err)
		}

		fmt.Printf("Found %d results:\n", len(matches))
		for i, match := range matches {
			doc, err := db.GetWord(ctx, match.WordID)
			if err != nil {
				fmt.Printf("%d. %s (score: %.4f)\n", i+1, match.WordID, match.Similarity)
				continue
			}
			fmt.Printf("%d. %s (score: %.4f)\n", i+1, doc.Word, match.Similarity)
			if verbose && doc.OneLineDesc != "" {
				fmt.Printf("   %s\n", doc.OneLineDesc)
			}
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a word and its embedding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		doc, err := db.DeleteWordWithEmbeddingCleanup(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to delete word: %w", err)
		}

		fmt.Printf("Word '%s' deleted\n", doc.Word)
		return nil
	},
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Manage word embeddings",
}

var embedSetCmd = &cobra.Command{
	Use:   "set <word-id>",
	Short: "Set a word's embedding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vectorStr, _ := cmd.Flags().GetString("vector")

		vector, err := parseVector(vectorStr)
		if err != nil {
			return err
		}

		db, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		if err := db.UpsertEmbedding(ctx, args[0], vector); err != nil {
			return fmt.Errorf("failed to set embedding: %w", err)
		}

		fmt.Printf("Embedding for '%s' saved\n", args[0])
		return nil
	},
}

var embedDeleteCmd = &cobra.Command{
	Use:   "delete <word-id>",
	Short: "Delete a word's embedding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		if err := db.DeleteEmbedding(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to delete embedding: %w", err)
		}

		fmt.Printf("Embedding for '%s' deleted\n", args[0])
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage profile configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		cfg, err := db.GetProfileConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to get profile config: %w", err)
		}

		data, _ := json.MarshalIndent(cfg, "", "  ")
		fmt.Println(string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the profile configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, _ := cmd.Flags().GetBool("embedding")
		model, _ := cmd.Flags().GetString("model")
		dim, _ := cmd.Flags().GetInt("dim")
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		provider, _ := cmd.Flags().GetString("provider")
		aiModel, _ := cmd.Flags().GetString("ai-model")

		db, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		cfg := core.ProfileConfig{
			EmbeddingEnabled:    enabled,
			EmbeddingModel:      model,
			VectorDim:           dim,
			SimilarityThreshold: threshold,
			AIProvider:          provider,
			AIModel:             aiModel,
		}
		if err := db.SetProfileConfig(ctx, cfg); err != nil {
			return fmt.Errorf("failed to set profile config: %w", err)
		}

		fmt.Println("Profile configuration saved")
		return nil
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List available profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newManager()
		if err != nil {
			return err
		}

		names, err := mgr.Profiles()
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}

		if len(names) == 0 {
			fmt.Println("No profiles yet")
			return nil
		}
		for _, name := range names {
			marker := "  "
			if name == profile {
				marker = "* "
			}
			fmt.Printf("%s%s\n", marker, name)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check whether a file is a usable store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !vault.ValidateStoreFile(args[0]) {
			return fmt.Errorf("%s is not a valid store file", args[0])
		}
		fmt.Printf("%s is a valid store file\n", args[0])
		return nil
	},
}

func parseVector(str string) ([]float32, error) {
	if strings.TrimSpace(str) == "" {
		return nil, fmt.Errorf("vector is required")
	}
	var vector []float32
	for _, part := range strings.Split(str, ",") {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector format: %w", err)
		}
		vector = append(vector, float32(val))
	}
	return vector, nil
}

func newManager() (*vault.Manager, error) {
	opts := []vault.Option{vault.WithLogger(core.NopLogger())}
	if verbose {
		opts = []vault.Option{vault.WithLogger(core.NewStdLogger(core.LevelDebug))}
	}
	return vault.NewManager(profileDir, opts...)
}

func openDB() (*vault.DB, func(), error) {
	mgr, err := newManager()
	if err != nil {
		return nil, nil, err
	}

	db, err := mgr.Switch(context.Background(), profile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open profile %q: %w", profile, err)
	}
	return db, func() { mgr.Close() }, nil
}

func init() {
	cobra.OnInitialize(func() {
		cfg, err := loadCLIConfig(configPath)
		if err != nil {
			log.Fatal(err)
		}
		if !rootCmd.PersistentFlags().Changed("dir") {
			profileDir = cfg.ProfileDir
		}
		if !rootCmd.PersistentFlags().Changed("profile") {
			profile = cfg.Profile
		}
		if !rootCmd.PersistentFlags().Changed("verbose") {
			verbose = cfg.Verbose
		}
	})

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.config/wordvault/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&profileDir, "dir", "d", "", "Profile directory")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "default", "Profile name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	addCmd.Flags().String("desc", "", "One-line description")
	addCmd.Flags().String("details", "", "Detailed description")
	addCmd.Flags().StringSlice("tags", nil, "Tags (comma-separated)")
	addCmd.Flags().StringSlice("synonyms", nil, "Synonyms (comma-separated)")
	addCmd.Flags().StringSlice("antonyms", nil, "Antonyms (comma-separated)")
	addCmd.Flags().String("remark", "", "Free-form remark")
	addCmd.Flags().String("vector", "", "Embedding vector (comma-separated)")

	getCmd.Flags().Bool("id", false, "Look up by id instead of word")
	getCmd.Flags().Bool("json", false, "Output as JSON")

	listCmd.Flags().Int("offset", 0, "Page offset")
	listCmd.Flags().Int("limit", 20, "Page size")
	listCmd.Flags().Bool("desc", false, "Newest first")
	listCmd.Flags().Bool("json", false, "Output as JSON")

	searchCmd.Flags().Int("offset", 0, "Page offset")
	searchCmd.Flags().Int("limit", 20, "Page size")
	searchCmd.Flags().Bool("json", false, "Output as JSON")

	semanticCmd.Flags().String("vector", "", "Query vector (comma-separated)")
	semanticCmd.Flags().Int("top-k", 10, "Number of results")
	semanticCmd.MarkFlagRequired("vector")

	embedCmd.AddCommand(embedSetCmd, embedDeleteCmd)
	embedSetCmd.Flags().String("vector", "", "Vector values (comma-separated)")
	embedSetCmd.MarkFlagRequired("vector")

	configCmd.AddCommand(configShowCmd, configSetCmd)
	configSetCmd.Flags().Bool("embedding", false, "Enable embeddings")
	configSetCmd.Flags().String("model", "", "Embedding model name")
	configSetCmd.Flags().Int("dim", 0, "Vector dimensions")
	configSetCmd.Flags().Float64("threshold", 0.0, "Similarity threshold")
	configSetCmd.Flags().String("provider", "", "AI provider")
	configSetCmd.Flags().String("ai-model", "", "AI model name")

	rootCmd.AddCommand(
		addCmd,
		getCmd,
		listCmd,
		searchCmd,
		semanticCmd,
		deleteCmd,
		embedCmd,
		configCmd,
		profilesCmd,
		validateCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
