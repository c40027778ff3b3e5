package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwrona/guestgate/internal/config"
	"github.com/mwrona/guestgate/internal/credentials"
	"github.com/mwrona/guestgate/internal/discovery"
	"github.com/mwrona/guestgate/internal/logging"
	"github.com/mwrona/guestgate/internal/provision"
	"github.com/mwrona/guestgate/internal/store"
)

// Command flags
var (
	configPath  string
	profileName string
	checkOutStr string
	nights      int
	scanTimeout int
)

const dateLayout = "2006-01-02"

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "guestgate.yaml", "Path to configuration file")

	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(guestsCmd)
	rootCmd.AddCommand(discoverCmd)
}

// newService loads the configuration and wires the provisioning service.
func newService() (*provision.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return nil, err
	}
	log := logging.GetLogger()

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	gen := &credentials.Generator{
		SuffixDigits:        cfg.Provision.SuffixDigits,
		MaxAttempts:         cfg.Provision.GenerationRetries,
		PasswordLength:      cfg.Provision.PasswordLength,
		AllowSequentialRuns: cfg.Provision.AllowSequentialRuns,
	}

	dial := provision.NewRouterDialer(cfg.Router, log)
	return provision.NewService(dial, store.NewGormStore(db), gen, cfg, log), nil
}

// provisionCmd issues credentials for a room
var provisionCmd = &cobra.Command{
	Use:   "provision <room> <guest-name>",
	Short: "Issue WiFi credentials for a room",
	Long: `Generate WiFi credentials for a guest and push them to the router.

The username is derived from the room number with a random suffix; the
password is generated from an unambiguous alphabet so it can be read
off a printed card. Access expires at check-out, enforced by the
router's session limit and the cleanup command.`,
	Example: `  # One night (default), standard profile
  guestgate provision 101 "Jane Smith"

  # Three nights on the premium profile
  guestgate provision 101 "Jane Smith" --nights 3 --profile premium

  # Explicit check-out date
  guestgate provision 101 "Jane Smith" --check-out 2026-09-05`,
	Args: cobra.ExactArgs(2),
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().StringVar(&profileName, "profile", "standard", "Access profile to assign")
	provisionCmd.Flags().IntVar(&nights, "nights", 1, "Number of nights (ignored when --check-out is set)")
	provisionCmd.Flags().StringVar(&checkOutStr, "check-out", "", "Check-out date (YYYY-MM-DD)")
}

func runProvision(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer logging.Sync()

	room, guest := args[0], args[1]

	checkin := time.Now()
	var checkout time.Time
	if checkOutStr != "" {
		day, err := time.ParseInLocation(dateLayout, checkOutStr, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --check-out date (use YYYY-MM-DD): %w", err)
		}
		// Check-out is noon on the given day, the usual hotel cutoff.
		checkout = day.Add(12 * time.Hour)
	} else {
		checkout = checkin.AddDate(0, 0, nights)
	}

	grant, err := svc.Generate(context.Background(), room, guest, checkin, checkout, profileName)
	if err != nil {
		return err
	}

	fmt.Println("✓ WiFi access provisioned")
	fmt.Println()
	fmt.Printf("  Room:      %s\n", grant.Room)
	fmt.Printf("  Username:  %s\n", grant.Username)
	fmt.Printf("  Password:  %s\n", grant.Password)
	fmt.Printf("  Profile:   %s", grant.Profile)
	if grant.RateLimit != "" {
		fmt.Printf(" (%s)", grant.RateLimit)
	}
	fmt.Println()
	fmt.Printf("  Valid to:  %s\n", grant.CheckOut.Format("2006-01-02 15:04"))
	return nil
}

// revokeCmd removes a room's access
var revokeCmd = &cobra.Command{
	Use:   "revoke <room>",
	Short: "Revoke a room's WiFi access",
	Long: `Revoke the active WiFi access for a room.

Disconnects any live session, removes the hotspot user from the router,
and disables the stored record. Revoking a room with no active access
is a no-op.`,
	Example: `  guestgate revoke 101`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRevoke,
}

func runRevoke(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer logging.Sync()

	room := args[0]
	res, err := svc.Remove(context.Background(), room)
	if err != nil {
		return err
	}

	if !res.Found {
		fmt.Printf("Room %s has no active WiFi access.\n", room)
		return nil
	}

	fmt.Printf("✓ Access for room %s revoked", room)
	if res.Disconnected {
		fmt.Print(" (live session disconnected)")
	}
	fmt.Println()
	return nil
}

// cleanupCmd revokes all expired access
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Revoke access for guests past check-out",
	Long: `Revoke every active access record whose check-out time has passed.

Intended to run from cron as a safety net behind the router's own
session limits. Per-room failures are reported but do not stop the run.`,
	Example: `  # Typical cron entry (hourly)
  0 * * * * guestgate cleanup --config /etc/guestgate.yaml`,
	RunE: runCleanup,
}

func runCleanup(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer logging.Sync()

	report, err := svc.CleanupExpired(context.Background(), time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Cleanup finished: %d revoked, %d failed\n", report.Removed, report.Failed)
	for _, cleanupErr := range report.Errors {
		fmt.Printf("  ✗ %v\n", cleanupErr)
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d record(s) could not be revoked", report.Failed)
	}
	return nil
}

// guestsCmd lists active guests with their session state
var guestsCmd = &cobra.Command{
	Use:   "guests",
	Short: "List active guests and their session state",
	Long: `List every room with active WiFi access, joined with the router's
live hotspot sessions to show who is currently online.`,
	Example: `  guestgate guests`,
	RunE:    runGuests,
}

func runGuests(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer logging.Sync()

	views, err := svc.ActiveGuests(context.Background())
	if err != nil {
		return err
	}

	if len(views) == 0 {
		fmt.Println("No active guests.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROOM\tGUEST\tUSERNAME\tPROFILE\tCHECK-OUT\tONLINE\tADDRESS\tUPTIME")
	for _, v := range views {
		online := "-"
		address := "-"
		uptime := "-"
		if v.Online {
			online = "yes"
			address = v.Address
			uptime = v.Uptime.Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.RoomNumber, v.GuestName, v.Username, v.Profile,
			v.CheckOut.Format("2006-01-02 15:04"), online, address, uptime)
	}
	return w.Flush()
}

// discoverCmd scans the network for RouterOS devices
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan for RouterOS devices on the network",
	Long: `Scan for RouterOS devices using mDNS/DNS-SD discovery.

Useful when setting up a new property to find the router's address
before writing the configuration file. Routers only respond when their
mDNS advertisement is enabled.`,
	Example: `  # Scan for 10 seconds (default)
  guestgate discover

  # Quick 3-second scan
  guestgate discover --timeout 3`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for RouterOS devices (timeout: %ds)...\n\n", scanTimeout)

	routers, err := discovery.ScanForRouters(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(routers) == 0 {
		fmt.Println("No routers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the router's mDNS advertisement is enabled")
		fmt.Println("  - Verify this machine is on the same network segment")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Set router.host in the config file manually if discovery fails")
		return nil
	}

	fmt.Printf("Found %d router(s):\n\n", len(routers))

	for i, router := range routers {
		fmt.Printf("%d. %s\n", i+1, router.Identity)
		fmt.Printf("   Hostname: %s\n", router.Hostname)
		fmt.Printf("   API:      %s\n", router.APIAddress())
		if len(router.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", router.Metadata)
		}
		fmt.Println()
	}

	fmt.Println("Set router.host in the config file to the address above.")
	return nil
}
