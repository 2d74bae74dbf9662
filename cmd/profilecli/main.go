// Package main provides the profile CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	apiconnect "github.com/osa030/tastemix/internal/api/connect"
	"github.com/osa030/tastemix/internal/api/profilev1"
	"github.com/osa030/tastemix/internal/api/profilev1/profilev1connect"
	"github.com/osa030/tastemix/internal/domain/audio"
	"github.com/osa030/tastemix/internal/domain/profile"
	"github.com/osa030/tastemix/internal/domain/source"
)

var (
	app     = kingpin.New("tastemix-profilecli", "tastemix taste profile client")
	server  = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token   = app.Flag("token", "API token (or set API_TOKEN env)").Envar("API_TOKEN").String()
	timeout = app.Flag("timeout", "Request timeout").Default("60s").Duration()
	asJSON  = app.Flag("json", "Print the raw profile as JSON").Bool()

	// generate command
	generateCmd  = app.Command("generate", "Generate a fresh profile for a user").Alias("gen")
	generateUser = generateCmd.Arg("user-id", "User ID").Required().String()

	// get command
	getCmd  = app.Command("get", "Show the stored profile of a user")
	getUser = getCmd.Arg("user-id", "User ID").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *token == "" {
		fmt.Println("Error: API token is required (use --token or API_TOKEN env)")
		os.Exit(1)
	}

	client := profilev1connect.NewProfileServiceClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.NewAPITokenInterceptor(*token)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch command {
	case generateCmd.FullCommand():
		generate(ctx, client, *generateUser)
	case getCmd.FullCommand():
		get(ctx, client, *getUser)
	}
}

func generate(ctx context.Context, client profilev1connect.ProfileServiceClient, userID string) {
	resp, err := client.GenerateProfile(ctx, connect.NewRequest(&profilev1.GenerateProfileRequest{UserID: userID}))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		printJSON(resp.Msg)
		return
	}
	printProfile(resp.Msg.Profile)
	printStats(resp.Msg.Stats)
}

func get(ctx context.Context, client profilev1connect.ProfileServiceClient, userID string) {
	resp, err := client.GetProfile(ctx, connect.NewRequest(&profilev1.GetProfileRequest{UserID: userID}))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		printJSON(resp.Msg)
		return
	}
	printProfile(resp.Msg.Profile)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func printProfile(p *profile.Profile) {
	if p == nil {
		fmt.Println("No profile returned")
		return
	}

	fmt.Println("\n=== TASTE PROFILE ===")
	fmt.Printf("User: %s\n", p.UserID)
	fmt.Printf("Services: %s\n", joinServices(p.SourceServices))
	fmt.Printf("Generated At: %s\n", p.GeneratedAt.Local().Format(time.DateTime))
	fmt.Printf("Party Readiness: %d/100\n", p.PartyReadiness)

	if p.IsEmpty() {
		fmt.Println("\nNo listening data yet.")
		return
	}

	fmt.Printf("\nTop Tracks (%d):\n", len(p.TopTracks))
	tracks := tablewriter.NewWriter(os.Stdout)
	tracks.Header("#", "Title", "Artist", "Score", "Services", "ISRC")
	for i, t := range p.TopTracks {
		services := make([]source.Service, 0, len(t.Sources))
		for svc := range t.Sources {
			services = append(services, svc)
		}
		sort.Slice(services, func(a, b int) bool { return services[a] < services[b] })
		mustAppend(tracks, []string{
			strconv.Itoa(i + 1), t.Title, t.ArtistDisplayName, formatScore(t.PopularityScore), joinServices(services), t.ISRC,
		})
	}
	mustRender(tracks)

	fmt.Printf("\nTop Artists (%d):\n", len(p.TopArtists))
	artists := tablewriter.NewWriter(os.Stdout)
	artists.Header("#", "Name", "Score", "Services", "Genres")
	for i, a := range p.TopArtists {
		mustAppend(artists, []string{
			strconv.Itoa(i + 1), a.Name, formatScore(a.PopularityScore), joinServices(a.Sources), strings.Join(a.Genres, ", "),
		})
	}
	mustRender(artists)

	if len(p.TopGenres) > 0 {
		fmt.Printf("\nTop Genres: %s\n", strings.Join(p.TopGenres, ", "))
	}

	fmt.Println("\nAudio Features:")
	features := tablewriter.NewWriter(os.Stdout)
	features.Header("Dimension", "Value")
	for _, d := range audio.Dimensions {
		mustAppend(features, []string{string(d), formatScore(p.AudioFeatures.Get(d))})
	}
	mustRender(features)
}

func printStats(s *profilev1.Stats) {
	if s == nil {
		return
	}

	fmt.Println("\nGeneration Stats:")
	fmt.Printf("  Merged Tracks: %d (cross-service: %d, with descriptors: %d)\n",
		s.MergedTracks, s.CrossServiceTracks, s.DescriptorCoverage)
	fmt.Printf("  Merged Artists: %d\n", s.MergedArtists)
	fmt.Printf("  Readiness Policy: %s\n", s.Policy)

	if len(s.Excluded) > 0 {
		fmt.Println("  Excluded Services:")
		names := make([]string, 0, len(s.Excluded))
		for name := range s.Excluded {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("    %s: %s\n", name, s.Excluded[name])
		}
	}
}

func joinServices(services []source.Service) string {
	names := make([]string, len(services))
	for i, s := range services {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func mustAppend(table *tablewriter.Table, row []string) {
	if err := table.Append(row); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func mustRender(table *tablewriter.Table) {
	if err := table.Render(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
