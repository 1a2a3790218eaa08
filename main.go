package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/viper"

	"beetdb/db"
	"beetdb/logger"
	"beetdb/storage"
)

type Config struct {
	DataDir  string `json:"data_dir" mapstructure:"data_dir"`
	DBFile   string `json:"db_file" mapstructure:"db_file"`
	LogFile  string `json:"log_file" mapstructure:"log_file"`
	LogLevel string `json:"log_level" mapstructure:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:  "data",
		DBFile:   "beet.db",
		LogFile:  "beetdb.log",
		LogLevel: "info",
	}
}

func LoadConfig(configFile string) *Config {
	viperCfg := viper.New()
	viperCfg.AddConfigPath(".")
	viperCfg.SetConfigFile(configFile)
	if err := viperCfg.ReadInConfig(); err != nil {
		fmt.Println("Read Config error:", err.Error())
	}

	config := DefaultConfig()
	if err := viperCfg.Unmarshal(config); err != nil {
		fmt.Println(err)
		return DefaultConfig()
	}
	return config
}

func main() {
	configFile := flag.String("config", "config/db.yaml", "Configuration file path")
	flag.Parse()

	root := filepath.Dir(*configFile)
	cfg := LoadConfig(*configFile)

	logger.Init(filepath.Join(root, cfg.LogFile), cfg.LogLevel)

	database, err := db.Open(filepath.Join(root, cfg.DataDir, cfg.DBFile))
	if err != nil {
		color.Red("open database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	repl(database)
}

func repl(database *db.DB) {
	session := database.Session()
	prompt := color.New(color.FgGreen)
	scanner := bufio.NewScanner(os.Stdin)

	prompt.Print("beetdb> ")
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
		case strings.HasPrefix(input, "!"):
			if quit := command(database, input); quit {
				return
			}
		default:
			result, err := session.Execute(input)
			if err != nil {
				color.Red("%v", err)
			} else {
				printResult(result)
			}
		}
		prompt.Print("beetdb> ")
	}
}

func command(database *db.DB, input string) bool {
	parts := strings.Fields(input)
	switch parts[0] {
	case "!help":
		fmt.Print(`
Enter a SQL statement to execute it.
Available commands:

    !help              Show this help
    !table <name>      Show table schema
    !tables            List tables
    !quit              Exit
`)
	case "!tables":
		for _, table := range database.Catalog().Tables() {
			fmt.Println(table.Name)
		}
	case "!table":
		if len(parts) != 2 {
			color.Red("usage: !table <name>")
			return false
		}
		table := database.Catalog().FindTable(parts[1])
		if table == nil {
			color.Red("unknown table %s", parts[1])
			return false
		}
		fmt.Println(table)
	case "!quit":
		return true
	default:
		color.Red("unknown command %s, try !help", parts[0])
	}
	return false
}

func printResult(result storage.ResultSet) {
	switch v := result.(type) {
	case *storage.CreateTableResult:
		fmt.Printf("Created table %s\n", v.Name)
	case *storage.InsertResult:
		fmt.Printf("Inserted %d rows\n", v.Count)
	case *storage.UpdateResult:
		fmt.Printf("Updated %d rows\n", v.Count)
	case *storage.DeleteResult:
		fmt.Printf("Deleted %d rows\n", v.Count)
	case *storage.QueryResult:
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, strings.Join(v.Columns, "\t"))
		for _, row := range v.Rows {
			cells := make([]string, len(row))
			for i, value := range row {
				cells[i] = value.String()
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		w.Flush()
	}
}
