package commands

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/josephlewis42/aorta/core/env"
)

const (
	EnvPrompt   = "PS1"
	EnvUser     = "USER"
	EnvHostname = "HOSTNAME"

	DefaultPrompt = `\w > `
)

var (
	unescapeOctal   = regexp.MustCompile(`\\0[0-7][0-7]?[0-7]?`)
	unescapeHex     = regexp.MustCompile(`\\x[0-9a-fA-F][0-9a-fA-F]?`)
	unescapeReplace = strings.NewReplacer(
		`\n`, "\n", // newline
		`\r`, "\r", // carriage return
		`\t`, "\t", // horizontal tab
		`\\`, `\`, // backslash literal
		`\a`, "\a", // alert
		`\e`, "\x1b", // escape
		`\[`, "", // start of non-printing characters
		`\]`, "", // end of non-printing characters
	)
)

func unescape(s string) string {
	s = unescapeReplace.Replace(s)
	s = unescapeOctal.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseUint(arg[2:], 8, 8)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	s = unescapeHex.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseUint(arg[2:], 16, 8)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	return s
}

// promptInfo holds the values substituted into a prompt.
type promptInfo struct {
	User string
	Host string
	Dir  string
	Home string
	Root bool
}

func currentPromptInfo(vars *env.Table) promptInfo {
	info := promptInfo{
		User: vars.Getenv(EnvUser),
		Host: vars.Getenv(EnvHostname),
		Home: vars.Getenv(env.Home),
		Root: os.Geteuid() == 0,
	}
	if info.Host == "" {
		info.Host, _ = os.Hostname()
	}
	info.Dir, _ = os.Getwd()
	return info
}

// expandPrompt replaces \u, \h, \w and \$ then interprets escapes.
func expandPrompt(prompt string, info promptInfo) string {
	pwd := info.Dir
	if info.Home != "" && (pwd == info.Home || strings.HasPrefix(pwd, info.Home+"/")) {
		pwd = "~" + strings.TrimPrefix(pwd, info.Home)
	}

	prompt = strings.ReplaceAll(prompt, `\u`, info.User)
	prompt = strings.ReplaceAll(prompt, `\h`, info.Host)
	prompt = strings.ReplaceAll(prompt, `\w`, pwd)
	if info.Root {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	return unescape(prompt)
}
