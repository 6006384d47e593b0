package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cldomains/treasury-wallet/internal/config"
	invitestatedb "github.com/cldomains/treasury-wallet/internal/database"
	"github.com/cldomains/treasury-wallet/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cl-treasury",
	Short: "Invite treasury CLI",
	Long:  `The invite redemption and treasury payout service, with both interactive and CLI modes.`,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedInvitesCmd)
	rootCmd.AddCommand(createInviteCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(balanceCmd)
}

func initConfig() {
	err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := logger.Init(viper.GetString("log_file")); err != nil {
		log.Printf("Error initializing file logger: %v", err)
	}
}

func initDatabase() error {
	if err := invitestatedb.InitSQLiteDB(viper.GetString("invite_db_path")); err != nil {
		return err
	}

	if viper.GetBool("seed_invites") {
		return invitestatedb.SeedInviteCodes(
			viper.GetFloat64("payout_amount_usdc"),
			viper.GetFloat64("payout_amount_eth"),
		)
	}
	return nil
}

func main() {
	initConfig()
	defer logger.Cleanup()

	if len(os.Args) > 1 {
		// CLI mode
		if err := rootCmd.Execute(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	} else {
		// Interactive mode
		interactiveMode()
	}
}

func interactiveMode() {
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\nInvite Treasury Manager")
		fmt.Println("1. Start the API server")
		fmt.Println("2. Seed invite codes")
		fmt.Println("3. Create an invite code")
		fmt.Println("4. Show treasury address")
		fmt.Println("5. Show treasury balances")
		fmt.Println("6. Exit")
		fmt.Print("\nEnter your choice (1-6): ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		switch choice {
		case "1":
			if err := runServe(); err != nil {
				log.Printf("Error running server: %s", err)
			}
		case "2":
			if err := runSeedInvites(); err != nil {
				log.Printf("Error seeding invite codes: %s", err)
			}
		case "3":
			fmt.Print("Enter code: ")
			code, _ := reader.ReadString('\n')
			code = strings.TrimSpace(code)
			if err := runCreateInvite(code, nil, nil); err != nil {
				log.Printf("Error creating invite code: %s", err)
			}
		case "4":
			if err := runShowAddress(); err != nil {
				log.Printf("Error showing treasury address: %s", err)
			}
		case "5":
			if err := runShowBalances(); err != nil {
				log.Printf("Error showing treasury balances: %s", err)
			}
		case "6":
			fmt.Println("Exiting program. Goodbye!")
			return
		default:
			fmt.Println("Invalid choice. Please try again.")
		}
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the invite redemption API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var seedInvitesCmd = &cobra.Command{
	Use:   "seed-invites",
	Short: "Seed the initial batch of invite codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeedInvites()
	},
}

var createInviteCmd = &cobra.Command{
	Use:   "create-invite [code] [usdc-amount] [eth-amount]",
	Short: "Create a new invite code",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var usdcAmount, ethAmount *float64
		if len(args) > 1 {
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid USDC amount %q: %v", args[1], err)
			}
			usdcAmount = &v
		}
		if len(args) > 2 {
			v, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid ETH amount %q: %v", args[2], err)
			}
			ethAmount = &v
		}
		return runCreateInvite(args[0], usdcAmount, ethAmount)
	},
}

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the treasury sending address and copy it to the clipboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShowAddress()
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the treasury ETH and USDC balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShowBalances()
	},
}
