// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package login

import (
	"fmt"

	"github.com/diragb/pleaseenteryourpassword/internal/credential"
)

// Notice is user-facing feedback for a submission.
type Notice struct {
	Title       string
	Description string
	// Destructive marks failures.
	Destructive bool
}

// NoticeFor returns the feedback shown for out. The alternatives kind has no
// notice; front ends render Prompt instead.
func NoticeFor(out credential.Outcome) (Notice, bool) {
	switch out.Kind {
	case credential.KindSuccess:
		return Notice{
			Title:       "Successful login!",
			Description: "Welcome to Please Enter Your Password. Enjoy!",
		}, true
	case credential.KindIdentityNotFound:
		return Notice{
			Title:       "Please register first!",
			Description: "Your account does not exist. Would you like to register instead?",
		}, true
	case credential.KindWrongSecretNoAlternatives:
		return Notice{
			Title:       "Wrong password, moron!",
			Description: fmt.Sprintf("Is your password %s by any chance? Just guessing..", out.Hint),
			Destructive: true,
		}, true
	default:
		return Notice{}, false
	}
}

// Prompt is the question shown for the cursor's current candidate.
func Prompt(c Candidate) (title, description string) {
	title = fmt.Sprintf("Are you %s?", c.Identity)
	description = fmt.Sprintf("The password you've entered belongs to @%s", c.Identity)
	if c.Total > 2 {
		description += fmt.Sprintf(" and %d+ other users", c.Total-1)
	}
	return title, description + "."
}
