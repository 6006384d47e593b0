package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/viper"

	"github.com/cldomains/treasury-wallet/internal/api"
	invitestatedb "github.com/cldomains/treasury-wallet/internal/database"
	"github.com/cldomains/treasury-wallet/internal/treasury"
)

func runServe() error {
	if err := initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	sender, err := treasury.NewSender()
	if err != nil {
		return fmt.Errorf("failed to initialize treasury sender: %v", err)
	}

	if sender.MockMode() {
		log.Println("Treasury running in mock mode; no transfers will be broadcast")
	} else {
		log.Printf("Treasury sending address: %s", sender.Address().Hex())
	}

	return api.NewAPI(sender).StartServer()
}

func runSeedInvites() error {
	if err := invitestatedb.InitSQLiteDB(viper.GetString("invite_db_path")); err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	err := invitestatedb.SeedInviteCodes(
		viper.GetFloat64("payout_amount_usdc"),
		viper.GetFloat64("payout_amount_eth"),
	)
	if err != nil {
		return err
	}

	fmt.Println("Invite codes seeded.")
	return nil
}

func runCreateInvite(code string, usdcAmount, ethAmount *float64) error {
	if err := invitestatedb.InitSQLiteDB(viper.GetString("invite_db_path")); err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	usdc := viper.GetFloat64("payout_amount_usdc")
	if usdcAmount != nil {
		usdc = *usdcAmount
	}
	eth := viper.GetFloat64("payout_amount_eth")
	if ethAmount != nil {
		eth = *ethAmount
	}

	if err := invitestatedb.CreateInviteCode(code, usdc, eth, nil); err != nil {
		return err
	}

	fmt.Printf("Created invite code %s (%.2f USDC, %.6f ETH)\n", code, usdc, eth)
	return nil
}

func runShowAddress() error {
	sender, err := treasury.NewSender()
	if err != nil {
		return err
	}

	address := sender.Address().Hex()
	fmt.Printf("Treasury address: %s\n", address)

	if err := clipboard.WriteAll(address); err != nil {
		log.Printf("Failed to copy address to clipboard: %v", err)
	} else {
		fmt.Println("Address copied to clipboard.")
	}
	return nil
}

func runShowBalances() error {
	sender, err := treasury.NewSender()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ethWei, usdcUnits, err := sender.Balances(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("ETH balance:  %.6f\n", treasury.WeiToEther(ethWei))
	fmt.Printf("USDC balance: %.2f\n", treasury.TokenAmount(usdcUnits, viper.GetInt("usdc_decimals")))
	return nil
}
