package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"alexandria_reader/lang"
	"alexandria_reader/library"
)

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List genres",
	Args:  cobra.NoArgs,
	RunE:  runGenres,
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List books of a genre or an author",
	Args:  cobra.NoArgs,
	RunE:  runBooks,
}

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "List authors",
	Args:  cobra.NoArgs,
	RunE:  runAuthors,
}

var chaptersCmd = &cobra.Command{
	Use:   "chapters <book>",
	Short: "List chapter titles of a book",
	Args:  cobra.ExactArgs(1),
	RunE:  runChapters,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search book titles across all genres",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the library donation balance",
	Args:  cobra.NoArgs,
	RunE:  runBalance,
}

var catalogArgs struct {
	withBooks bool
	genre     string
	author    string
}

func init() {
	genresCmd.Flags().BoolVar(&catalogArgs.withBooks, "books", false, "list the books of every genre too")
	booksCmd.Flags().StringVarP(&catalogArgs.genre, "genre", "g", "", "genre")
	booksCmd.Flags().StringVarP(&catalogArgs.author, "author", "a", "", "author")
	booksCmd.MarkFlagsMutuallyExclusive("genre", "author")
	booksCmd.MarkFlagsOneRequired("genre", "author")

	RootCmd.AddCommand(genresCmd, booksCmd, authorsCmd, chaptersCmd, searchCmd, balanceCmd)
}

func runGenres(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if !catalogArgs.withBooks {
		genres, err := env.lib.Genres(cmd.Context())
		if err != nil {
			return err
		}
		for _, g := range genres {
			fmt.Fprintln(out, g)
		}
		return nil
	}

	shelves, err := library.GenresWithBooks(cmd.Context(), env.lib, env.log)
	if err != nil {
		return err
	}
	var errs error
	for _, s := range shelves {
		if s.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("genre %q: %w", s.Genre, s.Err))
			fmt.Fprintf(out, "%s (%s)\n", s.Genre, lang.Active().Library.Unavailable)
			continue
		}
		fmt.Fprintf(out, "%s (%s)\n", s.Genre, lang.BookCount(len(s.Books)))
		for _, b := range s.Books {
			fmt.Fprintf(out, "  %s\n", b)
		}
	}
	return errs
}

func runBooks(cmd *cobra.Command, _ []string) error {
	var (
		books []string
		err   error
	)
	if catalogArgs.genre != "" {
		books, err = env.lib.BooksByGenre(cmd.Context(), catalogArgs.genre)
	} else {
		books, err = env.lib.BooksByAuthor(cmd.Context(), catalogArgs.author)
	}
	if err != nil {
		return err
	}
	for _, b := range books {
		fmt.Fprintln(cmd.OutOrStdout(), b)
	}
	return nil
}

func runAuthors(cmd *cobra.Command, _ []string) error {
	authors, err := env.lib.Authors(cmd.Context())
	if err != nil {
		return err
	}
	for _, a := range authors {
		fmt.Fprintln(cmd.OutOrStdout(), a)
	}
	return nil
}

func runChapters(cmd *cobra.Command, args []string) error {
	book, err := library.OpenBook(cmd.Context(), env.lib, args[0])
	if err != nil {
		return err
	}
	for _, ch := range book.Chapters {
		fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", ch.Index+1, ch.Title)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	shelves, err := library.GenresWithBooks(cmd.Context(), env.lib, env.log)
	if err != nil {
		return err
	}
	for _, e := range library.SearchBooks(args[0], library.Entries(shelves)) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.Name, e.Genre)
	}
	return nil
}

func runBalance(cmd *cobra.Command, _ []string) error {
	if env.flow == nil {
		return errors.New("the donation balance is only available with the flow source")
	}
	flow, err := env.flow.DonationBalance(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), lang.DonationBalance(flow))
	return nil
}
