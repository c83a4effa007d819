package cli

import (
	"context"
	"fmt"
)

func (a *App) register(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Email:", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "input error:", err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintln(a.out, "input error:", err)
		return
	}
	if err := a.auth.SignUp(ctx, email, string(password)); err != nil {
		fmt.Fprintln(a.out, "registration failed:", err)
		return
	}
	fmt.Fprintln(a.out, "Registered. Use 'login' to sign in.")
}

func (a *App) login(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Email:", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "input error:", err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintln(a.out, "input error:", err)
		return
	}
	user, err := a.auth.SignIn(ctx, email, string(password))
	if err != nil {
		fmt.Fprintln(a.out, "login failed:", err)
		return
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", user.Email)

	// Adopt everything created as a guest and pull the account's data.
	a.trigger.Kick()
}

func (a *App) logout(ctx context.Context) {
	if err := a.auth.SignOut(ctx); err != nil {
		fmt.Fprintln(a.out, "logout failed:", err)
		return
	}
	fmt.Fprintln(a.out, "Signed out; working as guest.")
}

func (a *App) whoami(ctx context.Context) {
	ident := a.auth.Current(ctx)
	if !ident.IsAuthenticated() {
		fmt.Fprintln(a.out, "guest (local only, nothing syncs)")
		return
	}
	u := ident.User()
	fmt.Fprintf(a.out, "%s (%s)\n", u.Email, u.ID)
}
