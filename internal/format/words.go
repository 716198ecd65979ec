package format

// defaultProtectedWords are terms whose casing must survive title
// formatting. Supplemented at runtime via LoadProtectedWords.
var defaultProtectedWords = []string{
	"IEEE", "ACM", "USENIX", "ETSI", "NIST", "ISO", "W3C", "IETF",
	"IoT", "WiFi", "LoRa", "LoRaWAN", "Bluetooth", "ZigBee", "5G", "6G", "LTE",
	"TCP", "UDP", "HTTP", "HTTPS", "DNS", "REST", "API", "SQL", "NoSQL",
	"RDF", "XML", "JSON", "HTML", "URL", "URI",
	"BERT", "GPT", "CNN", "RNN", "LSTM", "GAN", "GNN", "NLP", "SLAM",
	"GPU", "CPU", "FPGA", "ASIC", "RISC",
	"TensorFlow", "PyTorch", "Python", "JavaScript", "MATLAB",
	"Internet", "Web", "Linux", "Android",
	"Bayesian", "Gaussian", "Markov", "Monte", "Carlo",
}

// defaultSmallWords stay lowercase in Title Case unless first or last.
var defaultSmallWords = []string{
	"a", "an", "the",
	"and", "but", "or", "for", "nor",
	"at", "by", "in", "of", "on", "to", "up", "as", "from", "with",
	"into", "onto", "over", "under", "via",
}

// defaultJournalAbbr maps full venue names to their standard
// abbreviations. Supplemented at runtime via LoadJournalAbbreviations.
var defaultJournalAbbr = map[string]string{
	"IEEE Transactions on Pattern Analysis and Machine Intelligence": "IEEE Trans. Pattern Anal. Mach. Intell.",
	"IEEE Transactions on Neural Networks and Learning Systems":      "IEEE Trans. Neural Netw. Learn. Syst.",
	"IEEE Transactions on Knowledge and Data Engineering":            "IEEE Trans. Knowl. Data Eng.",
	"IEEE Transactions on Mobile Computing":                          "IEEE Trans. Mob. Comput.",
	"IEEE Transactions on Parallel and Distributed Systems":          "IEEE Trans. Parallel Distrib. Syst.",
	"IEEE Internet of Things Journal":                                "IEEE Internet Things J.",
	"IEEE Communications Surveys and Tutorials":                      "IEEE Commun. Surv. Tutor.",
	"ACM Computing Surveys":                                          "ACM Comput. Surv.",
	"ACM Transactions on Database Systems":                           "ACM Trans. Database Syst.",
	"Communications of the ACM":                                      "Commun. ACM",
	"Journal of Machine Learning Research":                           "J. Mach. Learn. Res.",
	"Proceedings of the VLDB Endowment":                              "Proc. VLDB Endow.",
	"Neural Computation":                                             "Neural Comput.",
	"Artificial Intelligence":                                        "Artif. Intell.",
	"Machine Learning":                                               "Mach. Learn.",
	"Pattern Recognition":                                            "Pattern Recognit.",
	"Expert Systems with Applications":                               "Expert Syst. Appl.",
	"Future Generation Computer Systems":                             "Future Gener. Comput. Syst.",
	"Computer Networks":                                              "Comput. Netw.",
	"Knowledge-Based Systems":                                        "Knowl.-Based Syst.",
}
