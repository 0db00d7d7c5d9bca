package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/storefront/account"
	"github.com/retisha256/ecommerce/internal/storefront/admin"
	"github.com/retisha256/ecommerce/internal/storefront/checkout"
)

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := newFlagSet("products")
	search := fs.String("search", "", "filter by name, category or description")
	html := fs.Bool("html", false, "print the product grid as HTML")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := a.catalog()
	c.Load(ctx)
	if *html {
		return c.Render(os.Stdout, *search)
	}

	products := c.Search(*search)
	if len(products) == 0 {
		fmt.Println("Product Not Found")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, p.Price.Format())
	}
	return tw.Flush()
}

func (a *app) cartCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("cart: missing subcommand")
	}
	sub, args := args[0], args[1:]

	switch sub {
	case "show":
		a.printCart()
		return nil
	case "clear":
		a.cart.Clear()
		a.printCart()
		return nil
	}

	fs := newFlagSet("cart " + sub)
	id := fs.String("id", "", "product id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("cart %s: -id is required", sub)
	}

	switch sub {
	case "add":
		c := a.catalog()
		c.Load(ctx)
		if err := c.AddToCart(*id, a.cart); err != nil {
			return err
		}
	case "remove":
		a.cart.RemoveFromCart(*id)
	case "inc":
		a.cart.UpdateQuantity(*id, 1)
	case "dec":
		a.cart.UpdateQuantity(*id, -1)
	default:
		return fmt.Errorf("cart: unknown subcommand %q", sub)
	}
	a.printCart()
	return nil
}

func (a *app) printCart() {
	snap := a.cart.Snapshot()
	if len(snap.Items) == 0 {
		fmt.Println("Your cart is empty")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range snap.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", item.ID, item.Name, item.Quantity,
			item.PriceValue.Format(), item.PriceValue.Mul(item.Quantity).Format())
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%s\n", snap.Count, snap.Total.Format())
	_ = tw.Flush()
}

func (a *app) adminCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("admin: missing subcommand")
	}
	switch args[0] {
	case "list":
		recent, err := a.admin().Recent(10)
		if err != nil {
			return err
		}
		for _, p := range recent {
			fmt.Printf("%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, p.Price.Format())
		}
		return nil
	case "add":
	default:
		return fmt.Errorf("admin: unknown subcommand %q", args[0])
	}

	fs := newFlagSet("admin add")
	name := fs.String("name", "", "product name")
	category := fs.String("category", "", "category")
	price := fs.String("price", "", "price, e.g. 150000 or \"UGX. 150,000\"")
	description := fs.String("description", "", "description")
	image := fs.String("image", "", "image file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	form := admin.ProductForm{
		Name:        *name,
		Category:    *category,
		Price:       domain.ParseMoney(*price),
		Description: *description,
	}
	if *image != "" {
		f, err := os.Open(*image)
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		defer f.Close()
		form.Image = f
		form.ImageName = filepath.Base(*image)
	}

	p, _, err := a.admin().Create(ctx, form)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\t%s\n", p.ID, p.Name, p.Price.Format())
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := newFlagSet("checkout")
	var form checkout.CustomerForm
	fs.StringVar(&form.FirstName, "first", "", "first name")
	fs.StringVar(&form.LastName, "last", "", "last name")
	fs.StringVar(&form.Email, "email", "", "email")
	fs.StringVar(&form.Phone, "phone", "", "phone number")
	fs.StringVar(&form.Address, "address", "", "delivery address")
	fs.StringVar(&form.City, "city", "", "city")
	fs.StringVar(&form.Payment, "payment", "mtn", "mtn or airtel")
	fs.BoolVar(&form.Agree, "agree", false, "accept the terms")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pending, err := a.checkoutFlow().Submit(ctx, form)
	if err != nil {
		var verrs checkout.ValidationErrors
		if errors.As(err, &verrs) {
			for field, msg := range verrs {
				fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
			}
		}
		return err
	}

	in := pending.Instructions
	fmt.Printf("Order %s\n", in.OrderID)
	fmt.Printf("Pay %s with %s\n", in.Amount.Format(), in.Provider.DisplayName)
	for i, step := range in.Steps {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
	if in.Note != "" {
		fmt.Println(in.Note)
	}
	if in.WhatsAppLink != "" {
		fmt.Println("Send your receipt:", in.WhatsAppLink)
	}
	fmt.Println("Run `storefront confirm` once you have paid.")
	return nil
}

func (a *app) confirm(ctx context.Context, args []string) error {
	fs := newFlagSet("confirm")
	orderID := fs.String("order", "", "order id (defaults to the pending order)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := a.checkoutFlow().Confirm(ctx, *orderID)
	if err != nil {
		return err
	}
	fmt.Printf("Order %s: payment %s, status %s\n", res.Order.OrderID, res.Order.PaymentStatus, res.Order.OrderStatus)
	if res.Queued {
		fmt.Println("The shop could not be reached; the order was saved and will be sent later.")
	}
	return nil
}

func (a *app) subscribe(ctx context.Context, args []string) error {
	fs := newFlagSet("subscribe")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, err := a.newsletter().Subscribe(ctx, *email)
	return err
}

func (a *app) accountCmd(cmd string, args []string) error {
	accounts := a.accounts()
	switch cmd {
	case "logout":
		return accounts.Logout()
	case "login":
		fs := newFlagSet("login")
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		_, err := accounts.Login(*email, *password)
		return err
	}

	fs := newFlagSet("signup")
	var form account.SignupForm
	fs.StringVar(&form.FirstName, "first", "", "first name")
	fs.StringVar(&form.LastName, "last", "", "last name")
	fs.StringVar(&form.Email, "email", "", "email")
	fs.StringVar(&form.Phone, "phone", "", "phone number")
	fs.StringVar(&form.Password, "password", "", "password")
	fs.StringVar(&form.ConfirmPassword, "confirm", "", "repeat the password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, err := accounts.Signup(form)
	return err
}
