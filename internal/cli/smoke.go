package cli

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	mpapp "flowerchat/backend/internal/features/marketplace/application"
	"flowerchat/backend/internal/features/marketplace/domain"
	mpinfra "flowerchat/backend/internal/features/marketplace/infrastructure"
)

func marketplaceClient() (mpinfra.Client, error) {
	if env.MarketplaceURL == "" {
		return nil, errors.New("MARKETPLACE_API_URL is not set")
	}
	return mpinfra.NewClient(env.MarketplaceURL, env.MarketplaceTimeout), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Request an anonymous token from the marketplace",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := marketplaceClient()
			if err != nil {
				return err
			}
			tok, err := mpapp.NewAuthService(client).AnonymousToken(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tok)
		},
	}
}

func citiesCmd() *cobra.Command {
	var resolve string
	cmd := &cobra.Command{
		Use:   "cities",
		Short: "List delivery cities, or resolve one with --resolve",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := marketplaceClient()
			if err != nil {
				return err
			}
			cache := mpapp.NewCityCache(client, mpapp.NewAuthService(client), env.CityCacheTTL)
			if resolve == "" {
				cities, err := cache.All(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), cities)
			}
			city, ok, err := cache.Resolve(cmd.Context(), resolve)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf("city not found: %s", resolve)
			}
			return printJSON(cmd.OutOrStdout(), city)
		},
	}
	cmd.Flags().StringVar(&resolve, "resolve", "", "city name to resolve")
	return cmd
}

func searchCmd() *cobra.Command {
	var city, query string
	var limit int
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the catalog in a city",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := marketplaceClient()
			if err != nil {
				return err
			}
			auth := mpapp.NewAuthService(client)
			params := domain.SearchParams{Query: query, Limit: limit}
			if city != "" {
				c, ok, err := mpapp.NewCityCache(client, auth, env.CityCacheTTL).Resolve(cmd.Context(), city)
				if err != nil {
					return err
				}
				if !ok {
					return errors.Errorf("city not found: %s", city)
				}
				params.CityID = c.ID
			}
			res, err := mpapp.NewCatalogService(client, auth).Search(cmd.Context(), "", params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "delivery city name")
	cmd.Flags().StringVar(&query, "query", "", "search words")
	cmd.Flags().IntVar(&limit, "limit", 5, "number of results")
	return cmd
}
