package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "post":
		handlePost(args)
	case "categories":
		listCategories()
	case "upload":
		uploadImages(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: vendordash auth <login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "login":
		loginVendor(args[1:])
	case "logout":
		logoutVendor()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handlePost(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: vendordash post <list|get|create|delete|repost>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listPosts()
	case "get":
		getPost(args[1:])
	case "create":
		createPost(args[1:])
	case "delete":
		deletePost(args[1:])
	case "repost":
		repostPost(args[1:])
	default:
		fmt.Printf("unknown post command: %s\n", subCmd)
	}
}

// Auth commands
func loginVendor(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "vendor email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/token", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["access_token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *email)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutVendor() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/me", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		fmt.Println("✗ Token is no longer valid, log in again")
		return
	}

	var vendor map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&vendor)
	fmt.Printf("✓ %v (%v), status: %v\n", vendor["company_name"], vendor["email"], vendor["status"])
}

// Post commands
func listPosts() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/posts", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var posts []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&posts)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tSTATUS\tEXPIRES")
	for _, p := range posts {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", p["id"], p["title"], p["price"], p["status"], p["expires_at"])
	}
	w.Flush()
}

func getPost(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: vendordash post get <post-id>")
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/posts/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		fmt.Printf("✗ %s\n", body)
		return
	}

	var pretty bytes.Buffer
	json.Indent(&pretty, body, "", "  ")
	fmt.Println(pretty.String())
}

func createPost(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	title := fs.String("title", "", "post title")
	description := fs.String("description", "", "post description")
	price := fs.Float64("price", 0, "price")
	categoryID := fs.Int64("category", 0, "category ID")
	subcategoryID := fs.Int64("subcategory", 0, "subcategory ID (optional)")

	fs.Parse(args)

	if *title == "" || *price <= 0 || *categoryID == 0 {
		fmt.Println("Error: title, price, and category are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"title":       *title,
		"description": *description,
		"price":       *price,
		"category_id": *categoryID,
	}
	if *subcategoryID != 0 {
		payload["subcategory_id"] = *subcategoryID
	}

	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/posts", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Post created: %v (edit token %v)\n", result["postId"], result["editToken"])
	} else {
		fmt.Printf("✗ Create failed: %v\n", result)
	}
}

func deletePost(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: vendordash post delete <post-id>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/posts/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Post deleted: %s\n", args[0])
	} else {
		fmt.Printf("✗ Delete failed: %v\n", result)
	}
}

func repostPost(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: vendordash post repost <post-id>")
		return
	}

	req, _ := http.NewRequest("POST", getAPIURL()+"/posts/"+args[0]+"/repost", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Reposted as: %v (edit token %v)\n", result["postId"], result["editToken"])
	} else {
		fmt.Printf("✗ Repost failed: %v\n", result)
	}
}

func listCategories() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/categories", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var categories []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&categories)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSLUG")
	for _, c := range categories {
		fmt.Fprintf(w, "%v\t%v\t%v\n", c["id"], c["name"], c["slug"])
	}
	w.Flush()
}

func uploadImages(args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	postID := fs.String("post", "", "post ID")
	editToken := fs.String("token", "", "post edit token")
	configID := fs.String("config", "", "school config ID")

	fs.Parse(args)

	files := fs.Args()
	if *postID == "" || *editToken == "" || *configID == "" || len(files) == 0 {
		fmt.Println("Usage: vendordash upload -post <id> -token <edit-token> -config <config-id> <file>...")
		return
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("token", *editToken)
	mw.WriteField("postId", *postID)
	mw.WriteField("config_id", *configID)
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		part, _ := mw.CreateFormFile("image", filepath.Base(path))
		io.Copy(part, f)
		f.Close()
	}
	mw.Close()

	req, _ := http.NewRequest("POST", getAPIURL()+"/upload-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Uploaded %d file(s): %s\n", len(files), respBody)
	} else {
		fmt.Printf("✗ Upload failed (%d): %s\n", resp.StatusCode, respBody)
	}
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("VENDORDASH_API"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.vendordash/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.vendordash", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`VendorDash CLI

Usage:
  vendordash <command> [options]

Commands:
  auth        Vendor authentication (login, logout, who)
  post        Post operations (list, get, create, delete, repost)
  categories  List the categories your account may post into
  upload      Attach image files to a post
  help        Show this help message

Environment Variables:
  VENDORDASH_API    API endpoint (default: http://localhost:8080)

Examples:
  vendordash auth login -email vendor@example.com -password pass
  vendordash post list
  vendordash post create -title "Used textbook" -price 20 -category 3
  vendordash upload -post <id> -token <edit-token> -config <config-id> photo.jpg
`)
}
