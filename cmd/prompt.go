package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

func ask(question string) string {
	fmt.Print(question)
	resp, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(resp)
}

func confirm(question string) bool {
	resp := strings.ToLower(ask(question + " [y/N]: "))
	return resp == "y" || resp == "yes"
}
