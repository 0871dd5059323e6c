package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wesleyyan-sb/pwsafe"
	"github.com/wesleyyan-sb/pwsafe/internal/logging"
	"github.com/wesleyyan-sb/pwsafe/passphrase"
	"go.uber.org/zap"
)

func main() {
	path := flag.String("path", "entries.psafe3", "Path to the database file")
	family := flag.Int("family", 3, "File format family: 1, 2, or 3")
	pass := flag.String("password", "", "Database passphrase")
	flag.Parse()

	zl, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Error starting logger: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()
	var log logging.Logger = logging.NewZap(zl)

	if *pass == "" {
		fmt.Print("Enter passphrase: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*pass = strings.TrimSpace(scanner.Text())
		}
	}
	if *pass == "" {
		fmt.Println("Passphrase is required.")
		os.Exit(1)
	}

	fam := pwsafe.Family(*family)

	var db *pwsafe.DB
	if _, statErr := os.Stat(*path); statErr == nil {
		db, err = pwsafe.Open(*path, fam, []byte(*pass), nil, log)
	} else {
		db, err = pwsafe.New(fam, log)
	}
	if err != nil {
		log.Error("opening database failed", "path", *path, "err", err)
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Dispose()

	fmt.Println("Password Safe shell")
	fmt.Println("Commands: list, get <index>, add <title> <username> <password>, rm <index>, genpass <length>, save, exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(parts) == 0 {
			continue
		}

		switch strings.ToLower(parts[0]) {
		case "list":
			for _, b := range db.Beans() {
				fmt.Printf("%d: %s (%s)\n", b.StoreIndex, b.Title, b.Username)
			}
		case "get":
			if len(parts) != 2 {
				fmt.Println("Usage: get <index>")
				continue
			}
			idx, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("Invalid index")
				continue
			}
			bean, err := db.Get(idx)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Println(bean.Password)
		case "add":
			if len(parts) != 4 {
				fmt.Println("Usage: add <title> <username> <password>")
				continue
			}
			rec := &pwsafe.Record{Version: 3}
			rec.Set(pwsafe.Field{ID: pwsafe.FieldTitle, Value: pwsafe.FieldValue{Text: parts[1]}})
			rec.Set(pwsafe.Field{ID: pwsafe.FieldUsername, Value: pwsafe.FieldValue{Text: parts[2]}})
			rec.Set(pwsafe.Field{ID: pwsafe.FieldPassword, Value: pwsafe.FieldValue{Text: parts[3]}})
			if _, err := db.Add(rec); err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println("OK")
			}
		case "rm":
			if len(parts) != 2 {
				fmt.Println("Usage: rm <index>")
				continue
			}
			idx, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("Invalid index")
				continue
			}
			if err := db.Remove(idx); err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println("OK")
			}
		case "genpass":
			length := 16
			if len(parts) == 2 {
				if n, err := strconv.Atoi(parts[1]); err == nil {
					length = n
				}
			}
			pw, err := passphrase.MakePassword(passphrase.Policy{
				Length: length, UseDigits: true, UseLowercase: true, UseUppercase: true, UseSymbols: true,
			})
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println(pw)
			}
		case "save":
			var err error
			if _, statErr := os.Stat(*path); statErr == nil {
				err = db.Save([]byte(*pass))
			} else {
				err = db.SaveAs(*path, []byte(*pass))
			}
			if err != nil {
				log.Warn("save failed", "path", *path, "err", err)
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println("Saved")
			}
		case "exit", "quit":
			return
		default:
			fmt.Println("Unknown command")
		}
	}
}
