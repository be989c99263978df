package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"growmart/internal/adapters/cli"
	"growmart/internal/app"
	"growmart/internal/core"
)

var errExit = errors.New("exit")

// Run starts the interactive loop. Each line is a command; a leading slash is
// optional. Everything except new-order, help and exit is handed to cli.Run.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "Growmart order desk")
	fmt.Fprintln(out, "Type /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(out, "\n> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			if derr := dispatch(ctx, svc, reader, out, input); derr != nil {
				if errors.Is(derr, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return
				}
				printError(out, derr)
			}
		}
		if err != nil {
			// EOF on the input stream ends the session.
			return
		}
	}
}

func dispatch(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer, input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])

	switch cmd {
	case "help", "h":
		printHelp(out)
		return nil
	case "exit", "quit", "e", "q":
		return errExit
	case "new-order", "new":
		if len(tokens) < 2 {
			fmt.Fprintln(out, "Usage: /new-order <customer-id>")
			return nil
		}
		return handleNewOrder(ctx, reader, out, svc, tokens[1])
	}

	tokens[0] = cmd
	// JSON-on-stdin commands make no sense interactively; new-order covers them.
	if cmd == "order" || cmd == "process" || cmd == "cart" {
		fmt.Fprintln(out, "Use /new-order <customer-id> to place an order interactively.")
		return nil
	}
	return cli.Run(ctx, svc, tokens, strings.NewReader(""), out)
}

func printError(out io.Writer, err error) {
	if kind := core.ErrorKindOf(err); kind != "" {
		fmt.Fprintf(out, "Error [%s]: %v\n", kind, err)
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  /new-order <customer-id>             place and pay an order line by line")
	fmt.Fprintln(out, "  /get <order-id>                      show an order")
	fmt.Fprintln(out, "  /pay <order-id> <mode>               pay a pending order")
	fmt.Fprintln(out, "  /status <order-id> <status>          change an order's status")
	fmt.Fprintln(out, "  /orders <customer-id>                list a customer's orders")
	fmt.Fprintln(out, "  /products                            list the catalog")
	fmt.Fprintln(out, "  /stock                               available stock per product")
	fmt.Fprintln(out, "  /batches <product-id>                list harvest batches")
	fmt.Fprintln(out, "  /harvest <product-id> <batch> <harvested> <expires> <qty>")
	fmt.Fprintln(out, "  /revenue <grower-id> <start> <end>   realized revenue")
	fmt.Fprintln(out, "  /performance <grower-id>             grower summary")
	fmt.Fprintln(out, "  /exit")
}
